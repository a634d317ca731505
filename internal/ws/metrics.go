package ws

import "github.com/prometheus/client_golang/prometheus"

var connectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "ws_connections",
	Help: "Open websocket connections",
})

func init() {
	prometheus.MustRegister(connectionsGauge)
}

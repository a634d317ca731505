package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/initdata"
	"telegram_clicker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const botToken = "123456:TEST"

type fakeGame struct {
	mu    sync.Mutex
	coins int64
}

func (g *fakeGame) State(_ context.Context, playerID int64) (*service.State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &service.State{Player: domain.Player{ID: playerID, Coins: g.coins}}, nil
}

func (g *fakeGame) Tap(_ context.Context, _ int64, taps int) (*domain.TapResult, error) {
	if taps <= 0 || taps > 10 {
		return nil, service.ErrInvalidTaps
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.coins += int64(taps)
	return &domain.TapResult{Coins: g.coins, Earned: int64(taps)}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, id domain.TelegramIdentity) (*domain.Player, error) {
	return &domain.Player{ID: id.TgID * 10, TgID: id.TgID}, nil
}

type countingLimiter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, name, id string, maxRequests int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hits == nil {
		l.hits = make(map[string]int)
	}
	l.hits[name+":"+id]++
	return l.hits[name+":"+id] <= maxRequests, nil
}

func newServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	return newServerWithLimit(t, hub, TapLimit{})
}

func newServerWithLimit(t *testing.T, hub *Hub, limit TapLimit) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", HandleWS(HandlerConfig{
		Verifier: initdata.NewVerifier(botToken),
		Players:  fakeResolver{},
		Game:     &fakeGame{coins: 100},
		Hub:      hub,
		TapLimit: limit,
	}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func initData(tgID int64) string {
	return initdata.Sign(map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"user":      `{"id":` + strconv.FormatInt(tgID, 10) + `}`,
	}, botToken)
}

func dial(t *testing.T, srv *httptest.Server, raw string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?init_data=" + url.QueryEscape(raw)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHandleWS_RejectsBadInitData(t *testing.T) {
	srv := newServer(t, NewHub())
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?init_data=" + url.QueryEscape("user=%7B%7D&hash=00")

	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWS_StateAndTap(t *testing.T) {
	srv := newServer(t, NewHub())
	conn := dial(t, srv, initData(7))

	env := read(t, conn)
	require.Equal(t, MsgState, env.Type)
	var st service.State
	require.NoError(t, json.Unmarshal(env.Payload, &st))
	assert.Equal(t, int64(70), st.Player.ID)
	assert.Equal(t, int64(100), st.Player.Coins)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgTap, "payload": map[string]int{"taps": 5}}))
	env = read(t, conn)
	require.Equal(t, MsgTapResult, env.Type)
	var res domain.TapResult
	require.NoError(t, json.Unmarshal(env.Payload, &res))
	assert.Equal(t, int64(105), res.Coins)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgTap, "payload": map[string]int{"taps": 500}}))
	env = read(t, conn)
	assert.Equal(t, MsgError, env.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgPing}))
	assert.Equal(t, MsgPong, read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	assert.Equal(t, MsgError, read(t, conn).Type)
}

func TestHub_PublishReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	srv := newServer(t, hub)

	a := dial(t, srv, initData(3))
	b := dial(t, srv, initData(3))
	require.Equal(t, MsgState, read(t, a).Type)
	require.Equal(t, MsgState, read(t, b).Type)
	require.Eventually(t, func() bool { return hub.Online(30) == 2 }, time.Second, 10*time.Millisecond)

	hub.NotifyTransfer(1, 30, 25)

	for _, conn := range []*websocket.Conn{a, b} {
		env := read(t, conn)
		require.Equal(t, MsgTransferIn, env.Type)
		var p TransferInPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, TransferInPayload{FromPlayerID: 1, Amount: 25}, p)
	}

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return hub.Online(30) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithoutConnections(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() { hub.Publish(99, MsgState, nil) })
	assert.Equal(t, 0, hub.Online(99))
}

func TestHandleWS_TapRateLimit(t *testing.T) {
	limiter := &countingLimiter{}
	srv := newServerWithLimit(t, NewHub(), TapLimit{Limiter: limiter, Max: 3, Window: time.Second})
	conn := dial(t, srv, initData(4))
	require.Equal(t, MsgState, read(t, conn).Type)

	tap := map[string]any{"type": MsgTap, "payload": map[string]int{"taps": 1}}
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.WriteJSON(tap))
		require.Equal(t, MsgTapResult, read(t, conn).Type, "tap %d", i+1)
	}

	require.NoError(t, conn.WriteJSON(tap))
	env := read(t, conn)
	require.Equal(t, MsgError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "rate limit exceeded", p.Message)

	limiter.mu.Lock()
	assert.Equal(t, 4, limiter.hits["tap:p40"])
	limiter.mu.Unlock()

	// pings are not counted
	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgPing}))
	assert.Equal(t, MsgPong, read(t, conn).Type)
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	srv := newServer(t, hub)

	a := dial(t, srv, initData(5))
	b := dial(t, srv, initData(6))
	require.Equal(t, MsgState, read(t, a).Type)
	require.Equal(t, MsgState, read(t, b).Type)
	require.Eventually(t, func() bool { return hub.Online(50)+hub.Online(60) == 2 }, time.Second, 10*time.Millisecond)

	hub.CloseAll()

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "got %v", err)
	}
	require.Eventually(t, func() bool { return hub.Online(50)+hub.Online(60) == 0 }, 2*time.Second, 10*time.Millisecond)
}

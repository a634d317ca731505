// Command ws_smoke drives a running server end to end: two players connect to
// the live stream, one taps and sends coins, and the other must see the
// transfer arrive.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"telegram_clicker/internal/initdata"
	"telegram_clicker/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	initA := sign(botToken, 3001, "smokeA")
	initB := sign(botToken, 3002, "smokeB")

	connA := dial(base, initA)
	defer connA.Close()
	connB := dial(base, initB)
	defer connB.Close()

	expect(connA, "state")
	expect(connB, "state")

	if err := connA.WriteJSON(map[string]any{"type": "tap", "payload": map[string]int{"taps": 20}}); err != nil {
		logger.Fatal("write tap", "error", err)
	}
	logger.Info("A tapped", "reply", string(expect(connA, "tap_result")))

	token := authenticate(base, initA)
	body, _ := json.Marshal(map[string]any{"to": "@smokeB", "amount": 5})
	req, _ := http.NewRequest(http.MethodPost, "http://"+base+"/api/v1/transfer", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Fatal("transfer request", "error", err)
	}
	resp.Body.Close()
	logger.Info("transfer sent", "status", resp.StatusCode)

	logger.Info("B notified", "payload", string(expect(connB, "transfer_in")))
	logger.Info("smoke test finished")
}

func sign(botToken string, tgID int64, username string) string {
	user := fmt.Sprintf(`{"id":%d,"username":%q,"first_name":%q}`, tgID, username, username)
	return initdata.Sign(map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"user":      user,
	}, botToken)
}

func dial(base, raw string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+base+"/ws?init_data="+url.QueryEscape(raw), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	return conn
}

func authenticate(base, raw string) string {
	body, _ := json.Marshal(map[string]string{"init_data": raw})
	resp, err := http.Post("http://"+base+"/api/v1/auth", "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Fatal("auth request", "error", err)
	}
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		logger.Fatal("auth failed", "status", resp.StatusCode, "error", err)
	}
	return out.Token
}

// expect reads until a message of msgType arrives, skipping periodic state
// pushes.
func expect(conn *websocket.Conn, msgType string) json.RawMessage {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		var env struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			logger.Fatal("read", "waiting_for", msgType, "error", err)
		}
		if env.Type == msgType {
			return env.Payload
		}
	}
	logger.Fatal("timed out", "waiting_for", msgType)
	return nil
}

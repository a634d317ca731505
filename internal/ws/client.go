package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/logger"
	"telegram_clicker/internal/service"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer   = 64
	maxFrameSize = 4096
)

// Game is the part of service.GameService the stream uses.
type Game interface {
	State(ctx context.Context, playerID int64) (*service.State, error)
	Tap(ctx context.Context, playerID int64, taps int) (*domain.TapResult, error)
}

// TapLimiter counts tap messages per player. http/middleware.RateLimiter
// satisfies it.
type TapLimiter interface {
	Allow(ctx context.Context, name, id string, maxRequests int, window time.Duration) (bool, error)
}

// TapLimit caps tap messages per connection owner. A nil Limiter or a
// non-positive Max disables it.
type TapLimit struct {
	Limiter TapLimiter
	Max     int
	Window  time.Duration
}

type Client struct {
	PlayerID int64

	conn        *websocket.Conn
	hub         *Hub
	game        Game
	statePeriod time.Duration
	tapLimit    TapLimit

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(playerID int64, conn *websocket.Conn, hub *Hub, game Game, statePeriod time.Duration, tapLimit TapLimit) *Client {
	return &Client{
		PlayerID:    playerID,
		conn:        conn,
		hub:         hub,
		game:        game,
		statePeriod: statePeriod,
		tapLimit:    tapLimit,
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
	}
}

// Run blocks until the connection closes.
func (c *Client) Run(ctx context.Context) {
	c.hub.register(c)
	defer c.hub.unregister(c)

	go c.writePump()
	c.pushState(ctx)

	go c.stateLoop(ctx)
	c.readPump(ctx)
}

func (c *Client) queue(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		logger.Warn("ws: send buffer full, dropping message", "player_id", c.PlayerID)
	}
}

func (c *Client) reply(msgType string, payload any) {
	msg, err := encode(msgType, payload)
	if err != nil {
		logger.Error("ws: encode failed", "type", msgType, "error", err)
		return
	}
	c.queue(msg)
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) pushState(ctx context.Context) {
	st, err := c.game.State(ctx, c.PlayerID)
	if err != nil {
		logger.WithContext(ctx).Warn("ws: state failed", "player_id", c.PlayerID, "error", err)
		c.reply(MsgError, ErrorPayload{Message: "state unavailable"})
		return
	}
	c.reply(MsgState, st)
}

func (c *Client) stateLoop(ctx context.Context) {
	if c.statePeriod <= 0 {
		return
	}
	ticker := time.NewTicker(c.statePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pushState(ctx)
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithContext(ctx).Debug("ws: read error", "player_id", c.PlayerID, "error", err)
			}
			return
		}
		c.handle(ctx, msg)
	}
}

func (c *Client) handle(ctx context.Context, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		c.reply(MsgError, ErrorPayload{Message: "invalid message"})
		return
	}

	switch env.Type {
	case MsgPing:
		c.reply(MsgPong, nil)
	case MsgTap:
		var p TapPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.reply(MsgError, ErrorPayload{Message: "invalid tap payload"})
			return
		}
		if !c.allowTap(ctx) {
			c.reply(MsgError, ErrorPayload{Message: "rate limit exceeded"})
			return
		}
		res, err := c.game.Tap(ctx, c.PlayerID, p.Taps)
		if err != nil {
			text := "tap failed"
			if errors.Is(err, service.ErrInvalidTaps) {
				text = "invalid tap count"
			}
			c.reply(MsgError, ErrorPayload{Message: text})
			return
		}
		c.reply(MsgTapResult, res)
	default:
		c.reply(MsgError, ErrorPayload{Message: "unknown message type"})
	}
}

// allowTap shares the "tap" window with POST /tap, keyed the same way.
func (c *Client) allowTap(ctx context.Context) bool {
	l := c.tapLimit
	if l.Limiter == nil || l.Max <= 0 {
		return true
	}
	ok, err := l.Limiter.Allow(ctx, "tap", "p"+strconv.FormatInt(c.PlayerID, 10), l.Max, l.Window)
	if err != nil {
		logger.WithContext(ctx).Warn("ws: rate limiter unavailable", "player_id", c.PlayerID, "error", err)
	}
	return ok
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

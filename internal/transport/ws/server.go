package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/pkg/httputil"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

type PresenceSvc interface {
	Heartbeat(ctx context.Context, name string) error
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	presence PresenceSvc
	log      *slog.Logger

	pingEvery time.Duration
}

func NewServer(hub *Hub, presence PresenceSvc, pingEvery time.Duration, log *slog.Logger) *Server {
	if pingEvery <= 0 {
		pingEvery = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		hub:      hub,
		presence: presence,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
	}
}

// WS endpoint: GET /ws?user=NAME
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		httputil.Error(ctx, w, http.StatusUnprocessableEntity, domain.ErrInvalidInput.Error(), "user is required")
		return
	}
	// connecting counts as a liveness signal and proves registration
	if err := s.presence.Heartbeat(ctx, user); err != nil {
		if errors.Is(err, domain.ErrParticipantNotFound) {
			httputil.Error(ctx, w, http.StatusNotFound, err.Error())
			return
		}
		s.log.Error("ws heartbeat failed", "user", user, "err", err)
		httputil.Error(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		s.log.Warn("ws upgrade failed", "user", user, "err", err)
		return
	}

	c := newWsConn(conn, user)
	s.hub.Add(c)
	s.log.Debug("ws subscribed", "user", user)

	go s.writeLoop(c)
	s.readLoop(ctx, c)

	s.hub.Remove(c)
	if err := c.Close(); err != nil {
		s.log.Debug("ws close failed", "user", user, "err", err)
	}
	s.log.Debug("ws unsubscribed", "user", user)
}

// readLoop discards client frames; it exists to process control frames.
func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		if err := s.presence.Heartbeat(ctx, c.viewer); err != nil {
			s.log.Debug("ws pong heartbeat failed", "user", c.viewer, "err", err)
		}
		return nil
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn   *websocket.Conn
	viewer string
	send   chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

func newWsConn(c *websocket.Conn, viewer string) *wsConn {
	return &wsConn{
		conn:   c,
		viewer: viewer,
		send:   make(chan Event, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Send drops the event when the client is not keeping up.
func (c *wsConn) Send(ev Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) Viewer() string { return c.viewer }

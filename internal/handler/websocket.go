package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ws-server/internal/model"
	"github.com/iliyamo/ws-server/internal/repository"
)

// Timeouts for side effects that must never hold up a connection.
const (
	statsTimeout   = 2 * time.Second
	publishTimeout = 5 * time.Second
	closeWait      = time.Second
)

// EventPublisher delivers session lifecycle events, e.g. to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.SessionEvent) error
}

// WSHandler runs the per-connection echo loop. Every connection is
// independent; the only shared state is the set of open sockets kept so
// CloseAll can shut them down.
type WSHandler struct {
	Stats        repository.StatsRepo
	Events       EventPublisher   // nil disables session events
	ReadLimit    int64            // 0 means unbounded
	WriteTimeout time.Duration    // 0 means no write deadline
	Now          func() time.Time // clock, replaced in tests

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewWSHandler returns a handler that accepts upgrades from any origin.
// stats must not be nil; events may be.
func NewWSHandler(stats repository.StatsRepo, events EventPublisher, readLimit int64, writeTimeout time.Duration) *WSHandler {
	if stats == nil {
		panic("nil repository passed to NewWSHandler")
	}
	return &WSHandler{
		Stats:        stats,
		Events:       events,
		ReadLimit:    readLimit,
		WriteTimeout: writeTimeout,
		Now:          time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// UpgradeOr sends WebSocket upgrade requests to ws and everything else to plain.
func UpgradeOr(ws, plain echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if websocket.IsWebSocketUpgrade(c.Request()) {
			return ws(c)
		}
		return plain(c)
	}
}

// Serve upgrades the request, sends the welcome frame and then answers each
// inbound frame with an echo envelope followed by the raw payload. It
// returns when the peer closes, a transport error occurs or CloseAll runs.
//
// Binary frames are handled like text: the payload is taken as a UTF-8
// string and both replies are sent as text frames. Invalid UTF-8 sequences
// are replaced with U+FFFD so the raw reply is still a legal text frame and
// matches the envelope's message.
func (h *WSHandler) Serve(c echo.Context) error {
	logger := c.Logger()
	remote := c.Request().RemoteAddr

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written an HTTP error response.
		logger.Warnf("ws: upgrade from %s failed: %v", remote, err)
		return nil
	}
	if h.ReadLimit > 0 {
		conn.SetReadLimit(h.ReadLimit)
	}
	h.track(conn)
	logger.Infof("WebSocket connection established from %s", remote)
	h.recordStat(logger, h.Stats.ConnectionOpened)
	h.publish(logger, model.SessionEvent{Event: model.EventSessionOpened, RemoteAddr: remote, At: model.FormatTime(h.Now())})

	var handled int64
	defer func() {
		h.untrack(conn)
		_ = conn.Close()
		h.recordStat(logger, h.Stats.ConnectionClosed)
		h.publish(logger, model.SessionEvent{Event: model.EventSessionClosed, RemoteAddr: remote, At: model.FormatTime(h.Now()), Messages: handled})
		logger.Infof("WebSocket connection closed (%s)", remote)
	}()

	if err := h.writeJSON(conn, model.NewWelcome(h.Now())); err != nil {
		logger.Errorf("ws: welcome to %s failed: %v", remote, err)
		return nil
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !isExpectedClose(err) {
				logger.Errorf("ws: read from %s failed: %v", remote, err)
			}
			return nil
		}
		handled++
		data := strings.ToValidUTF8(string(payload), "\uFFFD")
		logger.Infof("Received message: %s", data)
		h.recordStat(logger, h.Stats.MessageHandled)

		if err := h.reply(conn, data); err != nil {
			var me *json.MarshalerError
			var ue *json.UnsupportedValueError
			if errors.As(err, &me) || errors.As(err, &ue) {
				logger.Errorf("ws: encode echo for %s: %v", remote, err)
				continue
			}
			logger.Errorf("ws: write to %s failed: %v", remote, err)
			return nil
		}
	}
}

// reply writes the envelope then the raw payload, in that order.
func (h *WSHandler) reply(conn *websocket.Conn, data string) error {
	if err := h.writeJSON(conn, model.NewEcho(data, h.Now())); err != nil {
		return err
	}
	return h.write(conn, []byte(data))
}

func (h *WSHandler) writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.write(conn, b)
}

func (h *WSHandler) write(conn *websocket.Conn, b []byte) error {
	if h.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// isExpectedClose reports a normal peer close or a socket closed by CloseAll.
func isExpectedClose(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

func (h *WSHandler) track(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *WSHandler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Active returns the number of open connections.
func (h *WSHandler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll sends a going-away close frame to every open connection and
// closes its socket. Each Serve loop then exits through its read error.
func (h *WSHandler) CloseAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		_ = c.Close()
	}
}

func (h *WSHandler) recordStat(logger echo.Logger, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warnf("ws: stats update failed: %v", err)
	}
}

// publish hands ev to the publisher on its own goroutine.
func (h *WSHandler) publish(logger echo.Logger, ev model.SessionEvent) {
	if h.Events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := h.Events.Publish(ctx, ev); err != nil {
			logger.Warnf("ws: publish %s failed: %v", ev.Event, err)
		}
	}()
}

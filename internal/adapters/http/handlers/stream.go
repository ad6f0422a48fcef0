package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 54 * time.Second
	streamWriteWait  = 10 * time.Second
)

// StreamHandler pushes view snapshots over a websocket.
type StreamHandler struct {
	board    *app.Board
	upgrader websocket.Upgrader
	now      func() time.Time

	closed    chan struct{}
	closeOnce sync.Once
}

// NewStreamHandler creates a stream handler. checkOrigin may be nil to
// accept any origin.
func NewStreamHandler(board *app.Board, checkOrigin func(*http.Request) bool) *StreamHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &StreamHandler{
		board: board,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		now:    time.Now,
		closed: make(chan struct{}),
	}
}

// Close ends every open stream with a going-away close frame. New
// connections are refused afterwards.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.closed) })
}

// Stream handles GET /api/v1/views/stream
// Sends the current views on connect and again after every change.
// Client messages are ignored.
func (h *StreamHandler) Stream(c *gin.Context) {
	logger := logging.FromContext(c.Request.Context())

	select {
	case <-h.closed:
		dto.AbortWithErrorCode(c, dto.ErrorCodeUnavailable, "server is shutting down")
		return
	default:
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer func() { _ = conn.Close() }()

	updates, cancelSub := h.board.Subscribe()
	defer cancelSub()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	go func() {
		defer cancel()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("websocket read error", slog.Any("error", err))
				}

				return
			}
		}
	}()

	logger.Debug("views stream opened")

	if err := h.send(conn, h.board.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("views stream closed")
			return
		case <-h.closed:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteWait))

			return
		case views := <-updates:
			if err := h.send(conn, views); err != nil {
				logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) send(conn *websocket.Conn, views app.Views) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))

	return conn.WriteJSON(dto.StreamMessage{
		Type:      dto.StreamMessageViews,
		Data:      dto.NewViewsResponse(views),
		Timestamp: h.now().UTC(),
	})
}

// RegisterStreamRoutes registers the stream route on the given router group.
func (h *StreamHandler) RegisterStreamRoutes(rg *gin.RouterGroup) {
	rg.GET("/views/stream", h.Stream)
}

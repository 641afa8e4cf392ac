package adapters

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dmaslov/pairdesk/internal/app"
	"github.com/dmaslov/pairdesk/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const writeTimeout = 5 * time.Second

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wsSink is one live transport session. It owns the outbound channel
// for its whole lifetime; the write pump draining it is what makes
// delivery to this connection serialized.
type wsSink struct {
	conn WSConn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSSink(conn WSConn, buffer int) *wsSink {
	return &wsSink{
		conn: conn,
		send: make(chan core.Frame, buffer),
	}
}

func (c *wsSink) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSink) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSController upgrades HTTP requests and runs one read loop per
// connection against the router.
type WSController struct {
	Router     *app.Router
	ReadLimit  int64
	SendBuffer int
}

func NewWSController(router *app.Router, readLimit int64, sendBuffer int) *WSController {
	return &WSController{Router: router, ReadLimit: readLimit, SendBuffer: sendBuffer}
}

func (ctl *WSController) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}

	id := core.ConnID(uuid.NewString())
	sink := newWSSink(ws, ctl.SendBuffer)
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	if err := ctl.Router.Registry.Register(id, sink); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Str("conn", string(id)).Msg("register connection")
		sink.Close()
		return
	}
	log.Info().Str("module", "adapters.ws").Str("conn", string(id)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cancel, sink)
	go ctl.readPump(ctx, cancel, id, sink)
}

func (ctl *WSController) writePump(ctx context.Context, cancel context.CancelFunc, c *wsSink) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump processes frames in arrival order. On exit it unregisters
// the connection so the registry never keeps a dead sink or a stale
// presence binding.
func (ctl *WSController) readPump(ctx context.Context, cancel context.CancelFunc, id core.ConnID, c *wsSink) {
	defer func() {
		log.Info().Str("module", "adapters.ws").Str("conn", string(id)).Msg("readPump closing")
		cancel()
		ctl.Router.Registry.Unregister(id)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.Router.HandleFrame(ctx, id, core.Frame(data))
		}
	}
}

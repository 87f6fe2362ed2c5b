package live

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub pushes dashboard snapshots to connected websocket clients after every
// cycle, so the browser does not have to poll. Slow clients are dropped, not
// waited on.
type Hub struct {
	Logger *zap.Logger

	mu        sync.Mutex
	clients   map[*websocket.Conn]struct{}
	broadcast chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Logger:    logger,
		clients:   map[*websocket.Conn]struct{}{},
		broadcast: make(chan []byte, 16),
	}
}

func (h *Hub) Register(engine *gin.Engine) {
	if h == nil || engine == nil {
		return
	}
	engine.GET("/ws/dashboard", h.handleUpgrade)
}

// Run fans broadcasts out to every client until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	if h == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast never blocks; when the buffer is full the message is dropped
// because a fresher snapshot is already on its way.
func (h *Hub) Broadcast(message []byte) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
	}
}

func (h *Hub) handleUpgrade(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	if h.Logger != nil {
		h.Logger.Debug("dashboard feed client connected", zap.String("remote", conn.RemoteAddr().String()))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

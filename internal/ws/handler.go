package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/phishlens/phishlens/internal/messaging"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Manager serves the extension message channel over WebSocket. Each inbound
// message gets exactly one JSON reply; messages on one connection are
// answered concurrently and replies may arrive out of order.
type Manager struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]*sync.Mutex
	handler     *messaging.Handler
	logger      *slog.Logger
}

// NewManager creates a new WebSocket manager.
func NewManager(handler *messaging.Handler, logger *slog.Logger) *Manager {
	return &Manager{
		connections: make(map[*websocket.Conn]*sync.Mutex),
		handler:     handler,
		logger:      logger,
	}
}

// HandleWS upgrades an HTTP connection to WebSocket and answers messages
// until the client disconnects.
func (m *Manager) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	writeMu := &sync.Mutex{}
	m.mu.Lock()
	m.connections[conn] = writeMu
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	var pending sync.WaitGroup
	defer func() {
		cancel()
		pending.Wait()
		m.mu.Lock()
		delete(m.connections, conn)
		m.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req messaging.Request
		if err := json.Unmarshal(data, &req); err != nil {
			m.send(conn, writeMu, messaging.Reply{Error: "invalid message"})
			continue
		}

		pending.Add(1)
		go func() {
			defer pending.Done()
			m.send(conn, writeMu, m.handler.Handle(ctx, req))
		}()
	}
}

// Count returns the number of open connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

func (m *Manager) send(conn *websocket.Conn, writeMu *sync.Mutex, reply messaging.Reply) {
	writeMu.Lock()
	defer writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(reply); err != nil {
		m.logger.Warn("websocket write failed", "err", err)
	}
}

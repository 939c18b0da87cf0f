package notify

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsClient serializa as escritas numa conexão: gorilla só suporta um
// escritor por vez, e Broadcast e o pong do HandleWS são concorrentes.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// Hub empurra notificações em tempo real para os clientes WebSocket do
// host UI conectados à sessão.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	conns    map[*wsClient]struct{}
}

// NewHub cria o hub com política customizada de origem (CORS).
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		conns:    make(map[*wsClient]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão. O cliente só lê;
// a única mensagem aceita é ping.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	cl := &wsClient{conn: conn}
	h.mu.Lock()
	h.conns[cl] = struct{}{}
	h.mu.Unlock()

	pong, _ := json.Marshal(map[string]string{"type": "pong"})
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "ping" {
			_ = cl.write(websocket.TextMessage, pong)
		}
	}

	h.mu.Lock()
	delete(h.conns, cl)
	h.mu.Unlock()
}

// Broadcast envia a notificação para todos os clientes conectados.
func (h *Hub) Broadcast(n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.conns) == 0 {
		return
	}
	b, _ := json.Marshal(n)
	for cl := range h.conns {
		_ = cl.write(websocket.TextMessage, b)
	}
}

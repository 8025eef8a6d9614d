package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/bus"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/cache"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/pkg/numbers"
)

const defaultHistoryDepth = 20

// Hub tracks connected streaming clients and their symbol rooms, fanning
// out price updates received over the cache layer's pub/sub. Connect and
// disconnect are explicit callbacks rather than ad hoc side effects.
type Hub struct {
	cache  *cache.Cache
	logger *log.Logger

	OnConnect    func(clientID string)
	OnDisconnect func(clientID string)

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]bool
}

// NewHub builds a Hub fed by the given cache layer.
func NewHub(c *cache.Cache, logger *log.Logger) *Hub {
	return &Hub{
		cache:  c,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Start attaches the hub to the price-updates pub/sub channel. Messages
// are routed to clients subscribed to the event's symbol room.
func (h *Hub) Start(ctx context.Context) error {
	return h.cache.Subscribe(ctx, cache.ChannelPriceUpdates, func(payload json.RawMessage) {
		var evt bus.PriceEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			h.logger.Printf("malformed price update on pub/sub, dropped: %v", err)
			return
		}
		h.broadcast(evt.Symbol, payload)
	})
}

// clientMessage is the inbound wire format. Depth may arrive as a JSON
// number or a string, so it stays loosely typed until extraction.
type clientMessage struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
	Depth  any    `json:"depth,omitempty"`
}

// Serve upgrades an HTTP request and runs the client until it disconnects.
func (h *Hub) Serve(clientID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}

	cl := &client{
		id:    clientID,
		conn:  conn,
		send:  make(chan []byte, 64),
		rooms: make(map[string]bool),
	}

	h.mu.Lock()
	h.clients[clientID] = cl
	h.mu.Unlock()

	h.logger.Printf("client connected: %s", clientID)
	if h.OnConnect != nil {
		h.OnConnect(clientID)
	}

	go h.writePump(cl)
	h.readPump(r.Context(), cl)
}

func (h *Hub) readPump(ctx context.Context, cl *client) {
	defer h.dropClient(ctx, cl)

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Printf("client %s: malformed message, dropped: %v", cl.id, err)
			continue
		}

		switch msg.Action {
		case "subscribe":
			h.join(ctx, cl, msg)
		case "unsubscribe":
			h.leave(ctx, cl, msg.Symbol)
		default:
			h.logger.Printf("client %s: unknown action %q", cl.id, msg.Action)
		}
	}
}

func (h *Hub) writePump(cl *client) {
	for data := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *Hub) join(ctx context.Context, cl *client, msg clientMessage) {
	if msg.Symbol == "" {
		return
	}

	h.mu.Lock()
	cl.rooms[msg.Symbol] = true
	h.mu.Unlock()

	if err := h.cache.HSet(ctx, cache.KeyWSRooms+msg.Symbol, cl.id, true); err != nil {
		h.logger.Printf("client %s: error recording room %s: %v", cl.id, msg.Symbol, err)
	}

	depth := int64(defaultHistoryDepth)
	if msg.Depth != nil {
		if n, err := numbers.ExtractInt(msg.Depth); err == nil && n > 0 {
			depth = n
		}
	}

	history, err := h.cache.LRange(ctx, cache.KeyCryptoHistory+msg.Symbol, 0, depth-1)
	if err != nil {
		h.logger.Printf("client %s: error loading history for %s: %v", cl.id, msg.Symbol, err)
		return
	}
	snapshot, err := json.Marshal(map[string]any{
		"type":    "history",
		"symbol":  msg.Symbol,
		"history": history,
	})
	if err != nil {
		return
	}
	select {
	case cl.send <- snapshot:
	default:
	}
}

func (h *Hub) leave(ctx context.Context, cl *client, symbol string) {
	if symbol == "" {
		return
	}

	h.mu.Lock()
	delete(cl.rooms, symbol)
	h.mu.Unlock()

	if err := h.cache.HDel(ctx, cache.KeyWSRooms+symbol, cl.id); err != nil {
		h.logger.Printf("client %s: error leaving room %s: %v", cl.id, symbol, err)
	}
}

func (h *Hub) broadcast(symbol string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.clients {
		if !cl.rooms[symbol] {
			continue
		}
		select {
		case cl.send <- payload:
		default:
			// Slow client; drop the update rather than block the fan-out.
		}
	}
}

func (h *Hub) dropClient(ctx context.Context, cl *client) {
	h.mu.Lock()
	delete(h.clients, cl.id)
	rooms := make([]string, 0, len(cl.rooms))
	for room := range cl.rooms {
		rooms = append(rooms, room)
	}
	h.mu.Unlock()

	for _, room := range rooms {
		if err := h.cache.HDel(ctx, cache.KeyWSRooms+room, cl.id); err != nil {
			h.logger.Printf("client %s: error leaving room %s: %v", cl.id, room, err)
		}
	}

	close(cl.send)
	cl.conn.Close()

	h.logger.Printf("client disconnected: %s", cl.id)
	if h.OnDisconnect != nil {
		h.OnDisconnect(cl.id)
	}
}

// Clients lists the ids of currently connected clients.
func (h *Hub) Clients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

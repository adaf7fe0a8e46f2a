package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"go-inventory-ledger/internal/model"
)

// Event actions
const (
	ActionBatchCreated    = "batch_created"
	ActionBatchAdjusted   = "batch_adjusted"
	ActionBatchDeleted    = "batch_deleted"
	ActionBatchReconciled = "batch_reconciled"
	ActionSyncCompleted   = "sync_completed"
)

// Event is one committed ledger change as pushed to dashboard clients.
type Event struct {
	Type     string               `json:"type"`
	Action   string               `json:"action"`
	Batch    *model.InventoryItem `json:"batch,omitempty"`
	Sequence uint64               `json:"sequence,omitempty"`
	Source   string               `json:"source,omitempty"`
	Message  string               `json:"message"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Hub struct {
	clients    map[Conn]bool
	register   chan Conn
	unregister chan Conn
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Conn]bool),
		register:   make(chan Conn),
		unregister: make(chan Conn),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Publish queues an event for every connected client. It never blocks the
// caller: when the queue is full the event is dropped and logged.
func (h *Hub) Publish(event Event) {
	if event.Type == "" {
		event.Type = "stock_update"
	}
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal event: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("ws: broadcast queue full, dropping %s event", event.Action)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Add registers conn. It returns immediately once the hub has stopped.
func (h *Hub) Add(conn Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Remove unregisters and closes conn.
func (h *Hub) Remove(conn Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Stop ends Run and closes every client connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			log.Println("New WS Client Connected")

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

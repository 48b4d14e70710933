package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Hub fans quiz change events out to the websocket clients watching each
// quiz. The client set is only modified by Run.
type Hub struct {
	clients    map[uint]map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
	quizID uint
	userID uint
}

type Message struct {
	Type    string      `json:"type"`
	QuizID  uint        `json:"quiz_id"`
	Payload interface{} `json:"payload"`
}

type outbound struct {
	quizID uint
	data   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for quizID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, quizID)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			if h.clients[client.quizID] == nil {
				h.clients[client.quizID] = make(map[*Client]bool)
			}
			h.clients[client.quizID][client] = true
			h.mutex.Unlock()
			slog.Info("feed client registered", "client", client.id, "quiz_id", client.quizID, "user_id", client.userID)

		case client := <-h.unregister:
			h.mutex.Lock()
			h.remove(client)
			h.mutex.Unlock()
			slog.Info("feed client unregistered", "client", client.id, "quiz_id", client.quizID)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients[message.quizID] {
				select {
				case client.send <- message.data:
				default:
					slog.Warn("feed client too slow, dropping", "client", client.id, "quiz_id", client.quizID)
					h.remove(client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// remove must be called with the mutex held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.quizID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.quizID)
	}
}

// Publish implements Notifier. It never blocks the caller: when the
// broadcast queue is full the event is dropped.
func (h *Hub) Publish(quizID uint, eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, QuizID: quizID, Payload: payload})
	if err != nil {
		slog.Error("failed to marshal feed event", "type", eventType, "error", err)
		return
	}

	select {
	case h.broadcast <- outbound{quizID: quizID, data: data}:
	default:
		slog.Warn("feed broadcast queue full, event dropped", "type", eventType, "quiz_id", quizID)
	}
}

func (h *Hub) ClientCount(quizID uint) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[quizID])
}

// RegisterClient attaches an upgraded connection to the feed of one quiz.
func (h *Hub) RegisterClient(conn *websocket.Conn, quizID, userID uint) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, sendBuffer),
		quizID: quizID,
		userID: userID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()

	return client
}

// readPump only handles keepalive: the feed is server to client.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("feed read error", "client", c.id, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			c.reply(Message{Type: "pong", QuizID: c.quizID})
		}
	}
}

func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.mutex.RLock()
	defer c.hub.mutex.RUnlock()
	if !c.hub.clients[c.quizID][c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/quantserve/valuation-engine/config"
	"github.com/quantserve/valuation-engine/internal/tasks"
	"github.com/quantserve/valuation-engine/pkg/metrics"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

const (
	// Maximum message size allowed from peer
	maxMessageSize = 4096

	defaultWriteWait    = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	defaultSendBuffer   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope sent to stream clients
type Message struct {
	Type   string      `json:"type"`
	TaskID string      `json:"taskId,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// clientRequest is the subscription control message read from a client
type clientRequest struct {
	Type    string   `json:"type"`
	TaskIDs []string `json:"taskIds,omitempty"`
}

// Hub maintains the set of connected clients and routes settled task results
// to them. A client with no explicit subscriptions receives every result;
// subscribing narrows the feed to the named task IDs.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *tasks.Result
	register   chan *Client
	unregister chan *Client
	writeWait  time.Duration
	pingPeriod time.Duration
	pongWait   time.Duration
	rec        *metrics.Recorder
	log        *logger.Logger
}

// Client is a middleman between a websocket connection and the hub
type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	id            string
	subscriptions map[string]bool
	mu            sync.RWMutex
}

// NewHub creates a result stream hub
func NewHub(rec *metrics.Recorder, cfg config.StreamConfig) *Hub {
	sendBuffer := cfg.SendBufferSize
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	writeWait := cfg.WriteTimeout
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	pingPeriod := cfg.PingInterval
	if pingPeriod <= 0 {
		pingPeriod = defaultPingInterval
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *tasks.Result, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		writeWait:  writeWait,
		pingPeriod: pingPeriod,
		// Pongs must arrive within a ping round trip plus slack.
		pongWait:   pingPeriod * 10 / 9,
		rec:        rec,
		log:        logger.GetLogger("stream.hub"),
	}
}

// Broadcast queues a settled result for delivery. Never blocks; if the hub is
// saturated the result is dropped for streaming and remains available via the
// task store.
func (h *Hub) Broadcast(result *tasks.Result) {
	select {
	case h.broadcast <- result:
	default:
		h.log.Warnf("stream backlog full, dropping broadcast for task %s", result.TaskID)
	}
}

// Run routes registrations and broadcasts until the context is canceled
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("result stream hub started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info("result stream hub shutting down")
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.rec.RecordStreamClients(len(h.clients))
			h.log.Infof("stream client %s connected", client.id)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.rec.RecordStreamClients(len(h.clients))
				h.log.Infof("stream client %s disconnected", client.id)
			}

		case result := <-h.broadcast:
			h.deliver(result)
		}
	}
}

func (h *Hub) deliver(result *tasks.Result) {
	payload, err := json.Marshal(Message{
		Type:   "task_result",
		TaskID: result.TaskID,
		Data:   result,
	})
	if err != nil {
		h.log.Errorf("failed to encode result for task %s: %v", result.TaskID, err)
		return
	}

	for client := range h.clients {
		if !client.wants(result.TaskID) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop it rather than stall the hub.
			delete(h.clients, client)
			close(client.send)
			h.rec.RecordStreamClients(len(h.clients))
		}
	}
}

// HandleWebSocket upgrades the connection and registers the client
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, 64),
		id:            uuid.NewString(),
		subscriptions: make(map[string]bool),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// wants reports whether the client should receive results for taskID
func (c *Client) wants(taskID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subscriptions) == 0 {
		return true
	}
	return c.subscriptions[taskID]
}

// readPump pumps control messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Errorf("websocket error: %v", err)
			}
			break
		}
		c.handleMessage(data)
	}
}

// writePump pumps queued messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var req clientRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendMessage(Message{Type: "error", Error: "invalid message format"})
		return
	}

	switch req.Type {
	case "subscribe":
		c.mu.Lock()
		for _, id := range req.TaskIDs {
			c.subscriptions[id] = true
		}
		c.mu.Unlock()
		c.sendMessage(Message{Type: "subscription_confirmed"})

	case "unsubscribe":
		c.mu.Lock()
		for _, id := range req.TaskIDs {
			delete(c.subscriptions, id)
		}
		c.mu.Unlock()
		c.sendMessage(Message{Type: "unsubscription_confirmed"})

	case "ping":
		c.sendMessage(Message{Type: "pong"})

	default:
		c.sendMessage(Message{Type: "error", Error: "unknown message type"})
	}
}

func (c *Client) sendMessage(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

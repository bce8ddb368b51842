package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hamas2/hamak/events"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FeedChannel receives every public event. New clients start on it.
const FeedChannel = "feed"

// VideoChannel names the channel for one video's likes and comments.
func VideoChannel(videoID string) string {
	return "video:" + videoID
}

// ErrStopped is returned by Publish once the hub has shut down.
var ErrStopped = errors.New("websocket: hub stopped")

type Manager struct {
	clients    map[*Client]bool
	broadcast  chan events.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// Client is one connection. send is never closed; quit tells the write
// pump to hang up.
type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	quit    chan struct{}
	once    sync.Once
	manager *Manager

	mu       sync.Mutex
	channels map[string]bool
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan events.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.quit) })
}

// add hands c to the hub. It reports false once the hub has stopped.
func (m *Manager) add(c *Client) bool {
	select {
	case m.register <- c:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) remove(c *Client) {
	select {
	case m.unregister <- c:
	case <-m.done:
	}
}

// Start runs the hub until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for client := range m.clients {
				delete(m.clients, client)
				client.close()
			}
			m.mu.Unlock()
			close(m.done)
			return

		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			total := len(m.clients)
			m.mu.Unlock()
			logrus.WithFields(logrus.Fields{"userId": client.userID, "clients": total}).Info("websocket client registered")

		case client := <-m.unregister:
			m.mu.Lock()
			delete(m.clients, client)
			client.close()
			total := len(m.clients)
			m.mu.Unlock()
			logrus.WithFields(logrus.Fields{"userId": client.userID, "clients": total}).Info("websocket client unregistered")

		case e := <-m.broadcast:
			m.deliver(e)
		}
	}
}

func (m *Manager) deliver(e events.Event) {
	msg, err := json.Marshal(map[string]any{
		"type":    e.Type,
		"payload": e,
	})
	if err != nil {
		logrus.WithError(err).Error("marshal websocket event")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for client := range m.clients {
		if !client.wants(e) {
			continue
		}
		select {
		case client.send <- msg:
		default:
			// slow consumer
			delete(m.clients, client)
			client.close()
		}
	}
}

// Publish queues e for delivery. It implements events.Publisher.
func (m *Manager) Publish(ctx context.Context, e events.Event) error {
	select {
	case m.broadcast <- e:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "websocket publish %s", e.Type)
	}
}

func (m *Manager) GetConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (c *Client) wants(e events.Event) bool {
	if e.Recipient != "" {
		return e.Recipient == c.userID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[FeedChannel] || (e.VideoID != "" && c.channels[VideoChannel(e.VideoID)])
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// TokenParser resolves a session token to a user id.
type TokenParser func(token string) (string, error)

func WebSocketHandler(manager *Manager, parse TokenParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}
		userID, err := parse(token)
		if err != nil {
			logrus.WithError(err).Warn("websocket connection rejected")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("websocket upgrade failed")
			return
		}

		client := &Client{
			conn:     conn,
			userID:   userID,
			send:     make(chan []byte, 256),
			quit:     make(chan struct{}),
			manager:  manager,
			channels: map[string]bool{FeedChannel: true},
		}

		if !manager.add(client) {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		client.reply("connected", map[string]any{
			"userId": userID,
			"time":   time.Now().Unix(),
		})

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.manager.remove(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warn("websocket read error")
			}
			break
		}

		var data struct {
			Type    string `json:"type"`
			Channel string `json:"channel"`
		}
		if err := json.Unmarshal(message, &data); err != nil {
			logrus.WithError(err).Debug("websocket message unmarshal error")
			continue
		}

		switch data.Type {
		case "subscribe":
			c.subscribe(data.Channel, true)
		case "unsubscribe":
			c.subscribe(data.Channel, false)
		case "ping":
			c.reply("pong", map[string]any{"time": time.Now().Unix()})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.quit:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) subscribe(channel string, on bool) {
	if channel != FeedChannel && !strings.HasPrefix(channel, "video:") {
		return
	}

	c.mu.Lock()
	if on {
		c.channels[channel] = true
	} else {
		delete(c.channels, channel)
	}
	c.mu.Unlock()

	kind := "subscribed"
	if !on {
		kind = "unsubscribed"
	}
	c.reply(kind, map[string]any{"channel": channel})
}

// reply sends a control message to this client only. It must not block the
// read loop, so a full buffer drops the message.
func (c *Client) reply(kind string, payload map[string]any) {
	msg, err := json.Marshal(map[string]any{"type": kind, "payload": payload})
	if err != nil {
		return
	}
	select {
	case <-c.quit:
	case c.send <- msg:
	default:
	}
}

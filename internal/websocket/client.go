package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request for userID and subscribes the connection to
// the user's own topic plus every topic in topics until the peer goes away.
// Later membership changes reach the connection through Hub.Subscribe and
// Hub.Unsubscribe.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, userID string, topics []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	client := &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 16),
	}
	hub.Register(UserTopic(userID), client)
	for _, topic := range topics {
		hub.Register(topic, client)
	}
	go client.writePump(hub)
	client.readPump(hub)
}

func (c *Client) close(hub *Hub) {
	c.once.Do(func() {
		hub.Remove(c)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump(hub *Hub) {
	defer c.close(hub)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump(hub *Hub) {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.close(hub)
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is broadcast-only; subscribers from any origin are accepted
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedHub fans encoded feed messages out to every connected WebSocket
// subscriber. A subscriber that cannot drain its queue is dropped instead of
// stalling the decode pipeline.
type feedHub struct {
	mu      sync.Mutex
	clients map[*feedClient]struct{}
	hello   []byte
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newFeedHub(hello []byte) *feedHub {
	return &feedHub{
		clients: make(map[*feedClient]struct{}),
		hello:   hello,
	}
}

// handleFeed upgrades the request and registers the subscriber. The greeting
// is queued before the client is eligible for broadcasts, so it is always
// the first frame a subscriber sees.
func (h *feedHub) handleFeed(c *gin.Context) {
	conn, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	client.send <- h.hello

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	log.Info().
		Str("client", conn.RemoteAddr().String()).
		Int("clients", count).
		Msg("feed client connected")

	go client.writeLoop()
	go h.readLoop(client)
}

// broadcast queues data on every subscriber. The send channels are only
// closed under h.mu, so a client still in the map always has an open channel.
func (h *feedHub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			delete(h.clients, client)
			close(client.send)
			log.Warn().
				Str("client", client.conn.RemoteAddr().String()).
				Msg("slow feed client dropped")
		}
	}
}

func (h *feedHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *feedHub) remove(client *feedClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// readLoop drains inbound frames. Subscribers have nothing to say; the loop
// exists to notice the close handshake and network failures.
func (h *feedHub) readLoop(client *feedClient) {
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(client)
	client.conn.Close()

	log.Info().
		Str("client", client.conn.RemoteAddr().String()).
		Int("clients", h.clientCount()).
		Msg("feed client disconnected")
}

// writeLoop owns all writes on the connection. It ends when the hub closes
// the send channel or the peer stops taking data.
func (c *feedClient) writeLoop() {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			break
		}
	}
	c.conn.Close()
}

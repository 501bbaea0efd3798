package live

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

type client struct {
	feed *Feed
	conn *ws.Conn
	send chan []byte
}

func newClient(feed *Feed, conn *ws.Conn) *client {
	return &client{
		feed: feed,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// run registers the client and pumps events until the connection closes.
// The feed is one-directional: incoming messages are read and discarded
// only to detect disconnects.
func (c *client) run(ctx context.Context) {
	c.feed.register(c)
	defer c.feed.unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

package websocket

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second
)

// ReconnectingClient is a read-only websocket consumer with automatic
// reconnection. The CLI uses it to tail the server's routing log stream
// without dying when the server restarts. Pings from the server are answered
// by gorilla's default handler; the client itself never writes.
type ReconnectingClient struct {
	url       *url.URL
	onMessage func([]byte)

	ctx    context.Context
	cancel context.CancelFunc
}

// NewReconnectingClient prepares a client for the given ws:// or wss:// URL.
func NewReconnectingClient(urlStr string) (*ReconnectingClient, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ReconnectingClient{url: u, ctx: ctx, cancel: cancel}, nil
}

// SetOnMessage sets the callback invoked for every received message. Must be
// called before Start.
func (rc *ReconnectingClient) SetOnMessage(fn func([]byte)) {
	rc.onMessage = fn
}

// Start dials and begins consuming in the background, reconnecting with
// exponential backoff whenever the connection drops. The first dial error is
// returned; later failures only back off and retry.
func (rc *ReconnectingClient) Start() error {
	conn, err := rc.dial()
	if err != nil {
		go rc.run(nil)
		return err
	}
	go rc.run(conn)
	return nil
}

// Stop ends the consume loop and closes the connection.
func (rc *ReconnectingClient) Stop() {
	rc.cancel()
}

func (rc *ReconnectingClient) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(rc.url.String(), nil)
	return conn, err
}

func (rc *ReconnectingClient) run(conn *websocket.Conn) {
	delay := initialReconnectDelay
	for {
		if conn != nil {
			rc.consume(conn)
			delay = initialReconnectDelay
		}

		select {
		case <-rc.ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}

		var err error
		conn, err = rc.dial()
		if err != nil {
			log.Printf("[ws] reconnect to %s failed: %v", rc.url, err)
			conn = nil
		}
	}
}

// consume reads until the connection fails or the client stops.
func (rc *ReconnectingClient) consume(conn *websocket.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-rc.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if rc.ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}
		if rc.onMessage != nil {
			rc.onMessage(message)
		}
	}
}

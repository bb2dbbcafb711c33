// Package wsconn provides a WebSocket client with automatic
// reconnection and exponential backoff, built on coder/websocket.
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// MessageHandler receives every message read from the connection.
// It runs on the read loop goroutine and must not block.
type MessageHandler func(ctx context.Context, data []byte)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string // used in error messages and logs
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

// DefaultConfig returns sensible defaults for the given endpoint.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
	}
}

// Client is a reconnecting WebSocket client. Reads are dispatched to
// the OnMessage handler; a dropped connection is re-dialed with
// exponential backoff until Close or the context ends.
type Client struct {
	config  Config
	handler MessageHandler

	conn   *websocket.Conn
	connMu sync.RWMutex

	state   atomic.Value // State
	closed  atomic.Bool
	done    chan struct{}
	closeMu sync.Once
}

// New creates a new WebSocket client for the configured URL.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("wsconn: empty URL")
	}
	c := &Client{
		config: cfg,
		done:   make(chan struct{}),
	}
	c.state.Store(StateDisconnected)
	return c, nil
}

// OnMessage sets the message handler. Must be called before Connect.
func (c *Client) OnMessage(handler MessageHandler) {
	c.handler = handler
}

// Connect dials the endpoint once. On success the read and ping loops
// start and re-dial on their own when the connection drops.
func (c *Client) Connect(ctx context.Context) error {
	c.state.Store(StateConnecting)

	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		c.state.Store(StateDisconnected)
		return fmt.Errorf("wsconn %s: dial %s: %w", c.config.Name, c.config.URL, err)
	}
	conn.SetReadLimit(1 << 22) // 4 MiB, order book snapshots are large

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.state.Store(StateConnected)

	go c.readLoop()
	if c.config.PingInterval > 0 {
		go c.pingLoop()
	}

	return nil
}

// ConnectWithRetry dials with exponential backoff until it succeeds,
// the retry budget runs out, or ctx ends.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	backoff := c.config.InitialBackoff
	attempts := 0

	for {
		err := c.Connect(ctx)
		if err == nil {
			return nil
		}

		attempts++
		if c.config.MaxReconnects > 0 && attempts >= c.config.MaxReconnects {
			return fmt.Errorf("wsconn %s: gave up after %d attempts: %w", c.config.Name, attempts, err)
		}

		c.state.Store(StateReconnecting)

		// Full jitter keeps a fleet of clients from thundering in sync.
		sleep := time.Duration(rand.Int63n(int64(backoff)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return errors.New("wsconn: closed")
		case <-time.After(sleep):
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

// Send writes a text message to the connection.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil || c.State() != StateConnected {
		return fmt.Errorf("wsconn %s: not connected", c.config.Name)
	}

	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}

	return conn.Write(ctx, websocket.MessageText, msg)
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.state.Load().(State)
}

// IsConnected reports whether the connection is currently up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close shuts the connection down and stops reconnecting.
func (c *Client) Close() error {
	c.closed.Store(true)
	c.closeMu.Do(func() { close(c.done) })
	c.state.Store(StateDisconnected)

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		err := c.conn.Close(websocket.StatusNormalClosure, "client closing")
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		if c.closed.Load() {
			return
		}

		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			return
		}

		ctx := context.Background()
		if c.config.ReadTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.config.ReadTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				c.handleReadError(err)
				return
			}
			c.dispatch(data)
			continue
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			c.handleReadError(err)
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	if c.handler != nil {
		c.handler(context.Background(), data)
	}
}

// handleReadError tears the connection down and re-dials in the
// background unless the client was closed deliberately.
func (c *Client) handleReadError(err error) {
	if c.closed.Load() {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		c.state.Store(StateDisconnected)
		return
	}

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusGoingAway, "read failed")
		c.conn = nil
	}
	c.connMu.Unlock()

	c.state.Store(StateReconnecting)
	go func() {
		_ = c.ConnectWithRetry(context.Background())
	}()
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), c.config.WriteTimeout)
			_ = conn.Ping(ctx)
			cancel()
		}
	}
}

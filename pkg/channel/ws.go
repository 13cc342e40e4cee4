package channel

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/msg"
)

// Settings bound the websocket transport's patience. The zero value is not
// usable; start from DefaultSettings.
type Settings struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingPeriod       time.Duration
	ReconnectDelay   time.Duration
	MaxMessageBytes  int64
	SendBuffer       int
}

// DefaultSettings returns the production transport tuning.
func DefaultSettings() Settings {
	return Settings{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     15 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingPeriod:       20 * time.Second,
		ReconnectDelay:   2 * time.Second,
		MaxMessageBytes:  16 << 20,
		SendBuffer:       64,
	}
}

// WSConn adapts one websocket connection to the Channel interface. It owns
// exactly two goroutines, a read pump and a write pump, and is finished for
// good once the underlying connection drops; reconnection is the Redialer's
// job.
type WSConn struct {
	conn     *websocket.Conn
	settings Settings

	send  chan msg.Envelope
	inbox chan msg.Envelope

	done      chan struct{}
	closeOnce sync.Once
}

// NewWSConn wraps an established websocket connection and starts its pumps.
// Both the dialing client and the accepting server use this.
func NewWSConn(conn *websocket.Conn, settings Settings) *WSConn {
	c := &WSConn{
		conn:     conn,
		settings: settings,
		send:     make(chan msg.Envelope, settings.SendBuffer),
		inbox:    make(chan msg.Envelope, settings.SendBuffer),
		done:     make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c
}

// Dial connects to a session host and returns the channel for one
// connection's lifetime.
func Dial(ctx context.Context, url string, settings Settings) (*WSConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: settings.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWSConn(conn, settings), nil
}

// Upgrader returns the websocket upgrader the host's HTTP handler uses.
func Upgrader(settings Settings) websocket.Upgrader {
	return websocket.Upgrader{
		HandshakeTimeout: settings.HandshakeTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		CheckOrigin:      func(*http.Request) bool { return true },
	}
}

// Send queues an envelope on the write pump.
func (c *WSConn) Send(env msg.Envelope) error {
	select {
	case <-c.done:
		return ErrClosed
	case c.send <- env:
		return nil
	}
}

// Inbox delivers envelopes read off the connection.
func (c *WSConn) Inbox() <-chan msg.Envelope {
	return c.inbox
}

// Done is closed when the connection is gone.
func (c *WSConn) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down.
func (c *WSConn) Close() error {
	c.shutdown()
	return nil
}

func (c *WSConn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *WSConn) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(c.settings.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			debug.Log("channel: read pump exit: %v", err)
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))

		env, err := msg.Parse(data)
		if err != nil {
			debug.Event("channel", "frame_dropped", map[string]any{
				"error": err.Error(),
			})
			continue
		}
		select {
		case c.inbox <- env:
		case <-c.done:
			return
		}
	}
}

func (c *WSConn) writePump() {
	ticker := time.NewTicker(c.settings.PingPeriod)
	defer ticker.Stop()
	defer c.shutdown()

	for {
		select {
		case <-c.done:
			return
		case env := <-c.send:
			data, err := env.Marshal()
			if err != nil {
				debug.Event("channel", "encode_dropped", map[string]any{
					"type":  string(env.Type),
					"error": err.Error(),
				})
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				debug.Log("channel: write pump exit: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				debug.Log("channel: ping failed: %v", err)
				return
			}
		}
	}
}

// Redialer keeps a client connected to a host across connection drops. It
// presents one stable Channel: envelopes from every successive connection
// arrive on the same Inbox, and each re-established connection is announced
// on Reconnected so the owner can resynchronize state.
type Redialer struct {
	url      string
	settings Settings

	mu      sync.Mutex
	current *WSConn

	inbox       chan msg.Envelope
	reconnected chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// NewRedialer starts the dial loop. The first connection attempt happens
// immediately; callers that need to know it succeeded wait on Reconnected.
func NewRedialer(url string, settings Settings) *Redialer {
	r := &Redialer{
		url:         url,
		settings:    settings,
		inbox:       make(chan msg.Envelope, settings.SendBuffer),
		reconnected: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	go r.run()
	return r
}

// Send forwards to the live connection, if any.
func (r *Redialer) Send(env msg.Envelope) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	r.mu.Lock()
	conn := r.current
	r.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Send(env)
}

// Inbox delivers envelopes from whichever connection is live.
func (r *Redialer) Inbox() <-chan msg.Envelope {
	return r.inbox
}

// Reconnected signals each newly established connection, including the
// first. The owner should respond by requesting fresh session state.
func (r *Redialer) Reconnected() <-chan struct{} {
	return r.reconnected
}

// Done is closed by Close; connection drops alone never finish a Redialer.
func (r *Redialer) Done() <-chan struct{} {
	return r.done
}

// Close stops redialing and drops any live connection.
func (r *Redialer) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	r.mu.Lock()
	conn := r.current
	r.current = nil
	r.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	return nil
}

func (r *Redialer) run() {
	for {
		select {
		case <-r.done:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.settings.HandshakeTimeout)
		conn, err := Dial(ctx, r.url, r.settings)
		cancel()
		if err != nil {
			debug.Log("channel: dial %s failed: %v", r.url, err)
			r.sleep()
			continue
		}

		r.mu.Lock()
		r.current = conn
		r.mu.Unlock()

		select {
		case r.reconnected <- struct{}{}:
		default:
		}
		debug.Event("channel", "connected", map[string]any{"url": r.url})

		r.pump(conn)

		r.mu.Lock()
		if r.current == conn {
			r.current = nil
		}
		r.mu.Unlock()
		debug.Event("channel", "disconnected", map[string]any{"url": r.url})
		r.sleep()
	}
}

// pump moves envelopes from one connection into the shared inbox until the
// connection or the redialer finishes.
func (r *Redialer) pump(conn *WSConn) {
	for {
		select {
		case <-r.done:
			_ = conn.Close()
			return
		case <-conn.Done():
			return
		case env := <-conn.Inbox():
			select {
			case r.inbox <- env:
			case <-r.done:
				_ = conn.Close()
				return
			}
		}
	}
}

// sleep waits the reconnect delay with a little jitter so a herd of clients
// does not redial in lockstep.
func (r *Redialer) sleep() {
	delay := r.settings.ReconnectDelay
	if delay <= 0 {
		delay = time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	select {
	case <-r.done:
	case <-time.After(delay + jitter):
	}
}

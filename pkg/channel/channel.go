// Package channel carries protocol envelopes between a session host and a
// render client. Both directions are asynchronous and at-most-once: Send
// never waits for the peer to handle the message, and a message in flight
// when the link drops is simply gone. Higher layers are built for that: the
// host resends complete state on request, and the client ignores replies it
// no longer expects.
//
// Two implementations: an in-process Pipe for tests and embedded use, and a
// websocket transport for the real host/client split.
package channel

import (
	"errors"
	"sync"

	"github.com/vanderheijden86/graphpane/pkg/msg"
)

// ErrClosed is returned by Send after the channel is closed for good.
var ErrClosed = errors.New("channel closed")

// ErrNotConnected is returned by Send while a redialing channel has no live
// connection. The message is dropped, as at-most-once delivery allows.
var ErrNotConnected = errors.New("channel not connected")

// Channel is one end of the duplex message link.
type Channel interface {
	// Send queues the envelope for delivery and returns without waiting
	// for it to be handled.
	Send(env msg.Envelope) error
	// Inbox delivers incoming envelopes. It is never closed; consumers
	// select on Done to learn about shutdown.
	Inbox() <-chan msg.Envelope
	// Done is closed when the channel is permanently finished.
	Done() <-chan struct{}
	// Close shuts the channel down. Idempotent.
	Close() error
}

// Pipe is an in-process channel end. The two ends returned by NewPipe share
// their buffers, so a Send on one side arrives on the other side's Inbox in
// order.
type Pipe struct {
	shared *pipeShared
	out    chan msg.Envelope
	in     chan msg.Envelope
}

type pipeShared struct {
	closed chan struct{}
	once   sync.Once
}

// NewPipe returns two connected channel ends with the given per-direction
// buffer. A full buffer makes Send wait, which never happens in practice
// with sane buffers but keeps delivery order strict.
func NewPipe(buffer int) (*Pipe, *Pipe) {
	if buffer < 1 {
		buffer = 1
	}
	ab := make(chan msg.Envelope, buffer)
	ba := make(chan msg.Envelope, buffer)
	shared := &pipeShared{closed: make(chan struct{})}
	a := &Pipe{shared: shared, out: ab, in: ba}
	b := &Pipe{shared: shared, out: ba, in: ab}
	return a, b
}

// Send delivers the envelope to the peer's inbox.
func (p *Pipe) Send(env msg.Envelope) error {
	select {
	case <-p.shared.closed:
		return ErrClosed
	default:
	}
	select {
	case p.out <- env:
		return nil
	case <-p.shared.closed:
		return ErrClosed
	}
}

// Inbox returns the receiving side of this end.
func (p *Pipe) Inbox() <-chan msg.Envelope {
	return p.in
}

// Done reports permanent shutdown of either end.
func (p *Pipe) Done() <-chan struct{} {
	return p.shared.closed
}

// Close shuts down both ends.
func (p *Pipe) Close() error {
	p.shared.once.Do(func() { close(p.shared.closed) })
	return nil
}

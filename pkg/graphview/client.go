package graphview

import (
	"context"

	"github.com/vanderheijden86/graphpane/pkg/channel"
)

// Client keeps a View attached to a session host over a self-healing
// websocket. Every re-established connection triggers a page state resync,
// which is how a client that missed replies while offline catches up.
type Client struct {
	view  *View
	relay *channel.Redialer
}

// NewClient starts dialing the host immediately.
func NewClient(url string, settings channel.Settings, view *View) *Client {
	return &Client{
		view:  view,
		relay: channel.NewRedialer(url, settings),
	}
}

// Run pumps messages until the context is cancelled or the client is
// closed.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.relay.Done():
				return
			case <-c.relay.Reconnected():
				c.view.Resync()
			}
		}
	}()
	return c.view.Run(ctx, c.relay)
}

// Close stops redialing and drops the connection.
func (c *Client) Close() error {
	return c.relay.Close()
}

// Package session is the host side of the graph view protocol. A Controller
// owns one view's PageState, executes queries against the backend, and
// relays results to whichever render client is currently attached. Replies
// carry the query id they answer; a reply for a query that has since been
// superseded is logged and dropped, never sent.
package session

import (
	"context"
	"sync"

	"github.com/vanderheijden86/graphpane/internal/backend"
	"github.com/vanderheijden86/graphpane/pkg/channel"
	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/msg"
)

// PageStore persists PageState snapshots across reconnects and restarts.
// *pagestore.Store satisfies this; tests use fakes.
type PageStore interface {
	Save(sessionID string, state msg.PageState) error
	Load(sessionID string) (msg.PageState, bool, error)
}

// Controller manages one session's query lifecycle. All state mutations
// happen under one mutex; backend execution runs on its own goroutine per
// query and re-checks the running id at completion time before emitting
// anything (supersede semantics).
type Controller struct {
	id   string
	exec backend.Executor

	mu    sync.Mutex
	state msg.PageState
	ch    channel.Channel // currently attached client, may be nil

	store PageStore
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageStore enables persistence. The stored snapshot, if any, seeds the
// initial state.
func WithPageStore(store PageStore) Option {
	return func(c *Controller) { c.store = store }
}

// WithInitialView sets the view preference used before the user has
// expressed one.
func WithInitialView(view msg.ViewMode) Option {
	return func(c *Controller) {
		if view.Valid() {
			c.state.View = view
		}
	}
}

// NewController creates a session controller. When a page store is
// configured, any previously saved state for this session id is restored,
// except that a query cannot still be running across a restart.
func NewController(id string, exec backend.Executor, opts ...Option) *Controller {
	c := &Controller{
		id:    id,
		exec:  exec,
		state: msg.PageState{View: msg.ViewGraph},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store != nil {
		if saved, ok, err := c.store.Load(id); err != nil {
			debug.Log("session %s: restore failed: %v", id, err)
		} else if ok {
			saved.IsQueryRunning = false
			c.state = saved
		}
	}
	return c
}

// ID returns the session id.
func (c *Controller) ID() string {
	return c.id
}

// PageState returns a copy of the current state snapshot.
func (c *Controller) PageState() msg.PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Serve attaches a channel and processes its messages until the channel or
// the context finishes. Each attach replaces any previous channel, so a
// reconnecting client takes over the session; the full state is sent
// immediately so the client can reconstruct the view.
func (c *Controller) Serve(ctx context.Context, ch channel.Channel) {
	c.mu.Lock()
	c.ch = ch
	c.mu.Unlock()

	c.sendTitle()
	c.sendPageState()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch.Done():
			c.detach(ch)
			return
		case env := <-ch.Inbox():
			c.handle(ctx, env)
		}
	}
}

// detach clears the channel if it is still the attached one.
func (c *Controller) detach(ch channel.Channel) {
	c.mu.Lock()
	if c.ch == ch {
		c.ch = nil
	}
	c.mu.Unlock()
}

func (c *Controller) handle(ctx context.Context, env msg.Envelope) {
	switch env.Type {
	case msg.TypeQuery:
		var q msg.Query
		if err := env.Decode(&q); err != nil {
			debug.Log("session %s: bad query payload: %v", c.id, err)
			return
		}
		c.Query(ctx, q.QueryID, q.Query)

	case msg.TypeSetQuery:
		var p msg.SetQuery
		if err := env.Decode(&p); err != nil {
			debug.Log("session %s: bad setQuery payload: %v", c.id, err)
			return
		}
		c.SetQuery(p.Query)

	case msg.TypeSetView:
		var p msg.SetView
		if err := env.Decode(&p); err != nil {
			debug.Log("session %s: bad setView payload: %v", c.id, err)
			return
		}
		c.SetView(p.View)

	case msg.TypeGetPageState:
		c.sendPageState()

	case msg.TypeGetTitle:
		c.sendTitle()

	case msg.TypeLog:
		var p msg.Log
		if err := env.Decode(&p); err != nil {
			return
		}
		debug.Log("client %s: %s", c.id, p.Text)

	default:
		debug.Event("session", "unknown_message", map[string]any{
			"session": c.id,
			"type":    string(env.Type),
		})
	}
}

// Query records queryID as current, flips the session into the querying
// state, and dispatches execution. The reply is emitted only if no newer
// query has started by the time execution completes.
func (c *Controller) Query(ctx context.Context, queryID int64, text string) {
	c.mu.Lock()
	c.state.Query = text
	c.state.RunningQueryID = queryID
	c.state.IsQueryRunning = true
	c.state.ErrorMessage = ""
	c.persistLocked()
	c.mu.Unlock()

	debug.Event("session", "query_dispatched", map[string]any{
		"session": c.id,
		"queryId": queryID,
	})

	go c.execute(ctx, queryID, text)
}

func (c *Controller) execute(ctx context.Context, queryID int64, text string) {
	records, edges, execErr := c.exec.Execute(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.RunningQueryID != queryID {
		// A newer query started while this one ran. Its answer is
		// meaningless now; dropping it here keeps the client from ever
		// seeing out-of-date results.
		debug.Event("session", "query_superseded", map[string]any{
			"session": c.id,
			"queryId": queryID,
			"current": c.state.RunningQueryID,
		})
		return
	}

	c.state.IsQueryRunning = false
	if execErr != nil {
		qerr := &QueryError{SessionID: c.id, QueryID: queryID, Cause: execErr}
		c.state.ErrorMessage = execErr.Error()
		c.state.Results = nil
		c.persistLocked()
		debug.Event("session", "query_failed", map[string]any{
			"session": c.id,
			"queryId": queryID,
			"error":   qerr.Error(),
		})
		c.sendLocked(msg.TypeShowQueryError, msg.ShowQueryError{
			QueryID: queryID,
			Error:   execErr.Error(),
		})
		return
	}

	c.state.ErrorMessage = ""
	c.state.Results = &msg.Results{QueryResults: records, EdgeResults: edges}
	c.persistLocked()
	debug.Event("session", "query_completed", map[string]any{
		"session": c.id,
		"queryId": queryID,
		"records": len(records),
		"edges":   len(edges),
	})
	c.sendLocked(msg.TypeShowResults, msg.ShowResults{
		QueryID: queryID,
		Results: records,
		Edges:   edges,
	})
}

// SetQuery persists the current query text without executing it.
func (c *Controller) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = text
	c.persistLocked()
}

// SetView persists the view preference. Invalid modes are ignored.
func (c *Controller) SetView(view msg.ViewMode) {
	if !view.Valid() {
		debug.Log("session %s: ignoring invalid view %q", c.id, view)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = view
	c.persistLocked()
}

// sendPageState pushes the full state snapshot to the attached client.
func (c *Controller) sendPageState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendLocked(msg.TypeSetPageState, c.state)
}

// sendTitle pushes the backend's display name.
func (c *Controller) sendTitle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendLocked(msg.TypeSetTitle, msg.SetTitle{Title: c.exec.Title()})
}

// sendLocked fires an envelope at the attached client, if any. Sends are
// fire-and-forget: a failed or dropped send is only logged, because the
// client recovers full state via getPageState on reconnect.
func (c *Controller) sendLocked(t msg.Type, payload any) {
	if c.ch == nil {
		debug.Log("session %s: no client attached, dropping %s", c.id, t)
		return
	}
	env, err := msg.New(t, payload)
	if err != nil {
		debug.Log("session %s: encode %s: %v", c.id, t, err)
		return
	}
	if err := c.ch.Send(env); err != nil {
		debug.Log("session %s: send %s: %v", c.id, t, err)
	}
}

// persistLocked saves the current state if a store is configured.
func (c *Controller) persistLocked() {
	if c.store == nil {
		return
	}
	if err := c.store.Save(c.id, c.state); err != nil {
		debug.Log("session %s: persist failed: %v", c.id, err)
	}
}

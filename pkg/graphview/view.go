package graphview

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/graphpane/pkg/channel"
	"github.com/vanderheijden86/graphpane/pkg/config"
	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/graph"
	"github.com/vanderheijden86/graphpane/pkg/msg"
)

// State is what the view is currently showing.
type State int

const (
	// StateEmpty means no query has produced anything yet.
	StateEmpty State = iota
	// StateQuerying means a query is outstanding.
	StateQuerying
	// StateError means the last query failed.
	StateError
	// StateResults means the last query succeeded and its results are shown.
	StateResults
)

func (s State) String() string {
	switch s {
	case StateQuerying:
		return "querying"
	case StateError:
		return "error"
	case StateResults:
		return "results"
	default:
		return "empty"
	}
}

// Surface is the display a View drives. Implementations draw however they
// like; the View guarantees calls arrive in a consistent order and never
// for a query the user has abandoned. All methods are called with the
// View's lock held, so implementations must not call back into the View.
type Surface interface {
	SetTitle(title string)
	SetQuery(text string)
	ShowState(s State)
	// ShowJSON receives the pretty-printed raw result set. It is updated on
	// every successful query regardless of view mode, so the JSON diagnostic
	// is always current.
	ShowJSON(raw string)
	ShowStats(text string)
	ShowError(text string)
	DisplayGraph(g *Graph)
	ClearGraph()
}

// View is the client half of the session protocol. It issues queries tagged
// with fresh ids, drops any reply whose id is not the one it is currently
// waiting for, and translates surviving replies into Surface calls.
type View struct {
	mu      sync.Mutex
	surface Surface
	ch      channel.Channel

	maxVertices int
	maxEdges    int

	nextQueryID   int64
	activeQueryID int64
	queryText     string
	viewMode      msg.ViewMode
	state         State
	results       *msg.Results
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithViewMode sets the starting display preference.
func WithViewMode(mode msg.ViewMode) ViewOption {
	return func(v *View) {
		if mode.Valid() {
			v.viewMode = mode
		}
	}
}

// NewView wires a surface to the protocol with the given display caps.
func NewView(surface Surface, cfg config.GraphConfig, opts ...ViewOption) *View {
	v := &View{
		surface:     surface,
		maxVertices: cfg.MaxVertices,
		maxEdges:    cfg.MaxEdges,
		viewMode:    msg.ViewGraph,
		state:       StateEmpty,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run attaches the view to a channel and pumps messages until the context
// is cancelled or the channel finishes. It requests the page state first so
// a fresh or reconnecting client starts from the host's truth.
func (v *View) Run(ctx context.Context, ch channel.Channel) error {
	v.mu.Lock()
	v.ch = ch
	v.mu.Unlock()

	v.Resync()
	v.send(msg.TypeGetTitle, nil)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch.Done():
			return nil
		case env := <-ch.Inbox():
			v.handle(env)
		}
	}
}

// Resync asks the host for the complete page state, as on first attach and
// after every reconnect.
func (v *View) Resync() {
	v.send(msg.TypeGetPageState, nil)
}

// RunQuery issues the query under a fresh id and moves the view to the
// querying state. Any reply still in flight for an earlier query becomes
// stale the moment this returns. The new id is returned for tests and logs.
func (v *View) RunQuery(text string) int64 {
	v.mu.Lock()
	v.nextQueryID++
	id := v.nextQueryID
	v.activeQueryID = id
	v.queryText = text
	v.state = StateQuerying
	v.results = nil
	v.render(func(s Surface) {
		s.ClearGraph()
		s.ShowState(StateQuerying)
	})
	v.mu.Unlock()

	v.send(msg.TypeQuery, msg.Query{QueryID: id, Query: text})
	return id
}

// SetQueryText persists edited query text on the host without running it.
func (v *View) SetQueryText(text string) {
	v.mu.Lock()
	v.queryText = text
	v.mu.Unlock()
	v.send(msg.TypeSetQuery, msg.SetQuery{Query: text})
}

// SetViewMode switches between graph and JSON display, persists the choice
// on the host, and re-renders the current results in the new mode.
func (v *View) SetViewMode(mode msg.ViewMode) {
	if !mode.Valid() {
		return
	}
	v.mu.Lock()
	v.viewMode = mode
	if v.state == StateResults && v.results != nil {
		v.showResultsLocked(v.results)
	}
	v.mu.Unlock()
	v.send(msg.TypeSetView, msg.SetView{View: mode})
}

// ViewMode returns the current display preference.
func (v *View) ViewMode() msg.ViewMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewMode
}

// State returns the current display state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *View) handle(env msg.Envelope) {
	switch env.Type {
	case msg.TypeSetTitle:
		var p msg.SetTitle
		if err := env.Decode(&p); err != nil {
			debug.Log("graphview: %v", err)
			return
		}
		v.mu.Lock()
		v.render(func(s Surface) { s.SetTitle(p.Title) })
		v.mu.Unlock()

	case msg.TypeShowResults:
		var p msg.ShowResults
		if err := env.Decode(&p); err != nil {
			debug.Log("graphview: %v", err)
			return
		}
		v.handleResults(p)

	case msg.TypeShowQueryError:
		var p msg.ShowQueryError
		if err := env.Decode(&p); err != nil {
			debug.Log("graphview: %v", err)
			return
		}
		v.handleError(p)

	case msg.TypeSetPageState:
		var p msg.PageState
		if err := env.Decode(&p); err != nil {
			debug.Log("graphview: %v", err)
			return
		}
		v.handlePageState(p)

	default:
		debug.Log("graphview: ignoring message type %q", env.Type)
	}
}

func (v *View) handleResults(p msg.ShowResults) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p.QueryID != v.activeQueryID {
		debug.Event("graphview", "stale_reply_dropped", map[string]any{
			"queryId": p.QueryID,
			"active":  v.activeQueryID,
		})
		return
	}
	v.state = StateResults
	v.results = &msg.Results{QueryResults: p.Results, EdgeResults: p.Edges}
	v.showResultsLocked(v.results)
}

func (v *View) handleError(p msg.ShowQueryError) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p.QueryID != v.activeQueryID {
		debug.Event("graphview", "stale_error_dropped", map[string]any{
			"queryId": p.QueryID,
			"active":  v.activeQueryID,
		})
		return
	}
	v.state = StateError
	v.results = nil
	v.render(func(s Surface) {
		s.ClearGraph()
		s.ShowError(p.Error)
		s.ShowState(StateError)
	})
}

// handlePageState adopts the host's state wholesale. If a query is still
// running its id becomes the one we wait for, so the eventual reply lands
// even though this client never sent the query.
func (v *View) handlePageState(p msg.PageState) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.queryText = p.Query
	if p.View.Valid() {
		v.viewMode = p.View
	}
	v.render(func(s Surface) { s.SetQuery(p.Query) })

	switch {
	case p.IsQueryRunning:
		v.activeQueryID = p.RunningQueryID
		if v.nextQueryID < p.RunningQueryID {
			v.nextQueryID = p.RunningQueryID
		}
		v.state = StateQuerying
		v.results = nil
		v.render(func(s Surface) {
			s.ClearGraph()
			s.ShowState(StateQuerying)
		})
	case p.ErrorMessage != "":
		v.state = StateError
		v.results = nil
		v.render(func(s Surface) {
			s.ClearGraph()
			s.ShowError(p.ErrorMessage)
			s.ShowState(StateError)
		})
	case p.Results != nil:
		v.state = StateResults
		v.results = p.Results
		v.showResultsLocked(v.results)
	default:
		v.state = StateEmpty
		v.results = nil
		v.render(func(s Surface) {
			s.ClearGraph()
			s.ShowState(StateEmpty)
		})
	}
}

// showResultsLocked renders a successful result set. The raw JSON view is
// always refreshed; the graph is built only when the mode wants it and at
// least one vertex survived, otherwise the surface falls back to JSON.
func (v *View) showResultsLocked(res *msg.Results) {
	raw, err := json.MarshalIndent(res.QueryResults, "", "  ")
	if err != nil {
		raw = []byte("[]")
	}

	vertices, inline := graph.Partition(res.QueryResults)
	edges := graph.UnionEdges(inline, res.EdgeResults)
	g := Build(vertices, edges, v.maxVertices, v.maxEdges)

	v.render(func(s Surface) {
		s.ShowJSON(string(raw))
		s.ShowStats(g.Stats.String())
		if v.viewMode == msg.ViewGraph && len(g.Nodes) > 0 {
			s.DisplayGraph(g)
		} else {
			s.ClearGraph()
		}
		s.ShowState(StateResults)
	})
}

// render calls into the surface with panic isolation. A drawing bug takes
// out one frame, not the protocol loop.
func (v *View) render(fn func(Surface)) {
	defer func() {
		if r := recover(); r != nil {
			debug.Event("graphview", "render_panic", map[string]any{"panic": r})
		}
	}()
	fn(v.surface)
}

// send is fire-and-forget. A drop while disconnected is fine; the resync on
// reconnect restores anything that mattered.
func (v *View) send(t msg.Type, payload any) {
	v.mu.Lock()
	ch := v.ch
	v.mu.Unlock()
	if ch == nil {
		return
	}
	env, err := msg.New(t, payload)
	if err != nil {
		debug.Log("graphview: %v", err)
		return
	}
	if err := ch.Send(env); err != nil {
		debug.Log("graphview: send %s: %v", t, err)
	}
}

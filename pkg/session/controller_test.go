package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/graphpane/pkg/channel"
	"github.com/vanderheijden86/graphpane/pkg/graph"
	"github.com/vanderheijden86/graphpane/pkg/msg"
	"github.com/vanderheijden86/graphpane/pkg/testutil"
)

// execResult is what a test hands to the blocking executor to complete one
// in-flight query.
type execResult struct {
	records []graph.Record
	edges   []graph.Record
	err     error
}

// blockingExecutor parks every Execute call until the test releases it,
// which is how reply reordering is simulated.
type blockingExecutor struct {
	mu      sync.Mutex
	pending map[string]chan execResult
}

func newBlockingExecutor() *blockingExecutor {
	return &blockingExecutor{pending: make(map[string]chan execResult)}
}

func (e *blockingExecutor) waitCh(query string) chan execResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch, ok := e.pending[query]; ok {
		return ch
	}
	ch := make(chan execResult, 1)
	e.pending[query] = ch
	return ch
}

// release completes the in-flight call for query.
func (e *blockingExecutor) release(query string, res execResult) {
	e.waitCh(query) <- res
}

func (e *blockingExecutor) Execute(ctx context.Context, query string) ([]graph.Record, []graph.Record, error) {
	select {
	case res := <-e.waitCh(query):
		return res.records, res.edges, res.err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func (e *blockingExecutor) Title() string                   { return "testdb" }
func (e *blockingExecutor) Close(ctx context.Context) error { return nil }

// memStore is an in-memory PageStore.
type memStore struct {
	mu     sync.Mutex
	states map[string]msg.PageState
	saves  int
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]msg.PageState)}
}

func (s *memStore) Save(id string, state msg.PageState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = state
	s.saves++
	return nil
}

func (s *memStore) Load(id string) (msg.PageState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	return state, ok, nil
}

// recvType reads envelopes until one of the wanted type arrives.
func recvType(t *testing.T, ch channel.Channel, want msg.Type) msg.Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case env := <-ch.Inbox():
			if env.Type == want {
				return env
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

// expectNoMessage asserts nothing arrives within the window.
func expectNoMessage(t *testing.T, ch channel.Channel, window time.Duration) {
	t.Helper()
	select {
	case env := <-ch.Inbox():
		t.Fatalf("unexpected message %s", env.Type)
	case <-time.After(window):
	}
}

// startController wires a controller to the host end of a pipe and returns
// the client end.
func startController(t *testing.T, c *Controller) channel.Channel {
	t.Helper()
	hostEnd, clientEnd := channel.NewPipe(64)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(func() { hostEnd.Close() })

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Serve(ctx, hostEnd)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return clientEnd
}

func send(t *testing.T, ch channel.Channel, typ msg.Type, payload any) {
	t.Helper()
	env, err := msg.New(typ, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", typ, err)
	}
	if err := ch.Send(env); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

func TestAttachSendsTitleAndState(t *testing.T) {
	exec := newBlockingExecutor()
	client := startController(t, NewController("s1", exec))

	env := recvType(t, client, msg.TypeSetTitle)
	var title msg.SetTitle
	if err := env.Decode(&title); err != nil {
		t.Fatal(err)
	}
	if title.Title != "testdb" {
		t.Errorf("title = %q", title.Title)
	}

	env = recvType(t, client, msg.TypeSetPageState)
	var state msg.PageState
	if err := env.Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.IsQueryRunning {
		t.Error("fresh session claims a running query")
	}
	if state.View != msg.ViewGraph {
		t.Errorf("view = %q", state.View)
	}
}

func TestQueryResultsRelayed(t *testing.T) {
	exec := newBlockingExecutor()
	client := startController(t, NewController("s1", exec))
	recvType(t, client, msg.TypeSetPageState)

	send(t, client, msg.TypeQuery, msg.Query{QueryID: 1, Query: "g.V()"})
	exec.release("g.V()", execResult{records: testutil.QuickChain(2)})

	env := recvType(t, client, msg.TypeShowResults)
	var res msg.ShowResults
	if err := env.Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.QueryID != 1 {
		t.Errorf("queryId = %d", res.QueryID)
	}
	testutil.AssertRecordCount(t, res.Results, 3)
}

func TestSupersededReplyNeverSent(t *testing.T) {
	exec := newBlockingExecutor()
	client := startController(t, NewController("s1", exec))
	recvType(t, client, msg.TypeSetPageState)

	// Two queries in flight; the older completes after the newer started.
	send(t, client, msg.TypeQuery, msg.Query{QueryID: 1, Query: "slow"})
	send(t, client, msg.TypeQuery, msg.Query{QueryID: 2, Query: "fast"})

	// Give the controller time to register query 2 as current.
	time.Sleep(50 * time.Millisecond)

	exec.release("slow", execResult{records: testutil.Vertices(5)})
	expectNoMessage(t, client, 150*time.Millisecond)

	exec.release("fast", execResult{records: testutil.Vertices(2)})
	env := recvType(t, client, msg.TypeShowResults)
	var res msg.ShowResults
	if err := env.Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.QueryID != 2 {
		t.Errorf("queryId = %d, want 2", res.QueryID)
	}
	testutil.AssertRecordCount(t, res.Results, 2)
}

func TestSupersededErrorNeverSent(t *testing.T) {
	exec := newBlockingExecutor()
	ctrl := NewController("s1", exec)
	client := startController(t, ctrl)
	recvType(t, client, msg.TypeSetPageState)

	send(t, client, msg.TypeQuery, msg.Query{QueryID: 5, Query: "failing"})
	send(t, client, msg.TypeQuery, msg.Query{QueryID: 6, Query: "fine"})
	time.Sleep(50 * time.Millisecond)

	exec.release("fine", execResult{records: testutil.Vertices(1)})
	recvType(t, client, msg.TypeShowResults)

	// The old query's failure arrives after its supersession: silence.
	exec.release("failing", execResult{err: context.DeadlineExceeded})
	expectNoMessage(t, client, 150*time.Millisecond)

	state := ctrl.PageState()
	if state.ErrorMessage != "" {
		t.Errorf("stale error leaked into state: %q", state.ErrorMessage)
	}
	if state.Results == nil || len(state.Results.QueryResults) != 1 {
		t.Error("accepted results clobbered by stale error")
	}
}

func TestQueryErrorSurfaced(t *testing.T) {
	exec := newBlockingExecutor()
	ctrl := NewController("s1", exec)
	client := startController(t, ctrl)
	recvType(t, client, msg.TypeSetPageState)

	send(t, client, msg.TypeQuery, msg.Query{QueryID: 1, Query: "bad"})
	exec.release("bad", execResult{err: context.DeadlineExceeded})

	env := recvType(t, client, msg.TypeShowQueryError)
	var qerr msg.ShowQueryError
	if err := env.Decode(&qerr); err != nil {
		t.Fatal(err)
	}
	if qerr.QueryID != 1 || qerr.Error == "" {
		t.Errorf("error payload = %+v", qerr)
	}

	state := ctrl.PageState()
	if state.IsQueryRunning {
		t.Error("still marked running after error")
	}
	if state.ErrorMessage == "" {
		t.Error("error not recorded in state")
	}
	if state.Results != nil {
		t.Error("failed query left results behind")
	}
}

func TestGetPageStateWhileRunning(t *testing.T) {
	exec := newBlockingExecutor()
	client := startController(t, NewController("s1", exec))
	recvType(t, client, msg.TypeSetPageState)

	send(t, client, msg.TypeQuery, msg.Query{QueryID: 3, Query: "pending"})
	time.Sleep(50 * time.Millisecond)
	send(t, client, msg.TypeGetPageState, nil)

	env := recvType(t, client, msg.TypeSetPageState)
	var state msg.PageState
	if err := env.Decode(&state); err != nil {
		t.Fatal(err)
	}
	if !state.IsQueryRunning || state.RunningQueryID != 3 {
		t.Errorf("snapshot = %+v, want running query 3", state)
	}
	if state.Query != "pending" {
		t.Errorf("query text = %q", state.Query)
	}
}

func TestSetQueryAndSetViewPersist(t *testing.T) {
	exec := newBlockingExecutor()
	store := newMemStore()
	ctrl := NewController("s1", exec, WithPageStore(store))
	client := startController(t, ctrl)
	recvType(t, client, msg.TypeSetPageState)

	send(t, client, msg.TypeSetQuery, msg.SetQuery{Query: "g.E()"})
	send(t, client, msg.TypeSetView, msg.SetView{View: msg.ViewJSON})

	waitFor(t, func() bool {
		saved, ok, _ := store.Load("s1")
		return ok && saved.Query == "g.E()" && saved.View == msg.ViewJSON
	})
}

func TestInvalidViewIgnored(t *testing.T) {
	exec := newBlockingExecutor()
	ctrl := NewController("s1", exec)
	ctrl.SetView(msg.ViewMode("spreadsheet"))
	if got := ctrl.PageState().View; got != msg.ViewGraph {
		t.Errorf("view = %q, want graph preserved", got)
	}
}

func TestRestoreFromStoreClearsRunningFlag(t *testing.T) {
	store := newMemStore()
	store.states["s1"] = msg.PageState{
		Query:          "g.V().limit(10)",
		IsQueryRunning: true,
		RunningQueryID: 9,
		View:           msg.ViewJSON,
	}

	ctrl := NewController("s1", newBlockingExecutor(), WithPageStore(store))
	state := ctrl.PageState()
	if state.IsQueryRunning {
		t.Error("running flag survived restart; no query can outlive the host")
	}
	if state.Query != "g.V().limit(10)" || state.View != msg.ViewJSON {
		t.Errorf("restored state = %+v", state)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

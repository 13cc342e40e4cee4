package channel

import (
	"testing"
	"time"

	"github.com/vanderheijden86/graphpane/pkg/msg"
)

func recvEnvelope(t *testing.T, ch Channel) msg.Envelope {
	t.Helper()
	select {
	case env := <-ch.Inbox():
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return msg.Envelope{}
	}
}

func TestPipeDelivery(t *testing.T) {
	a, b := NewPipe(4)
	defer a.Close()

	env, err := msg.New(msg.TypeQuery, msg.Query{QueryID: 1, Query: "g.V()"})
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	if err := a.Send(env); err != nil {
		t.Fatalf("send: %v", err)
	}

	got := recvEnvelope(t, b)
	if got.Type != msg.TypeQuery {
		t.Fatalf("type = %q, want %q", got.Type, msg.TypeQuery)
	}
	var q msg.Query
	if err := got.Decode(&q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.QueryID != 1 || q.Query != "g.V()" {
		t.Errorf("payload = %+v", q)
	}
}

func TestPipePreservesOrder(t *testing.T) {
	a, b := NewPipe(8)
	defer a.Close()

	ids := []int64{1, 2, 3, 4, 5}
	for _, id := range ids {
		env, _ := msg.New(msg.TypeQuery, msg.Query{QueryID: id})
		if err := a.Send(env); err != nil {
			t.Fatalf("send %d: %v", id, err)
		}
	}

	for _, want := range ids {
		var q msg.Query
		if err := recvEnvelope(t, b).Decode(&q); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if q.QueryID != want {
			t.Fatalf("got query %d, want %d", q.QueryID, want)
		}
	}
}

func TestPipeCloseFinishesBothEnds(t *testing.T) {
	a, b := NewPipe(1)

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("peer Done not closed")
	}

	env, _ := msg.New(msg.TypeGetTitle, nil)
	if err := b.Send(env); err != ErrClosed {
		t.Errorf("send after close = %v, want ErrClosed", err)
	}

	// Second close is a no-op.
	if err := a.Close(); err != nil {
		t.Errorf("repeat close: %v", err)
	}
}

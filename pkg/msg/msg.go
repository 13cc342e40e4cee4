// Package msg defines the message protocol spoken between the session host
// and render clients. Every message is a JSON envelope {"type", "payload"};
// payloads are plain JSON-serializable structs. Delivery is fire-and-forget:
// senders never wait for acknowledgement, and both sides tolerate messages
// for state they no longer care about.
package msg

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/graphpane/pkg/graph"
)

// Type names a protocol message.
type Type string

// Client to host.
const (
	TypeQuery        Type = "query"
	TypeSetQuery     Type = "setQuery"
	TypeSetView      Type = "setView"
	TypeGetPageState Type = "getPageState"
	TypeGetTitle     Type = "getTitle"
	TypeLog          Type = "log"
)

// Host to client.
const (
	TypeSetPageState   Type = "setPageState"
	TypeSetTitle       Type = "setTitle"
	TypeShowResults    Type = "showResults"
	TypeShowQueryError Type = "showQueryError"
)

// ViewMode is the user's display preference for results.
type ViewMode string

const (
	ViewJSON  ViewMode = "json"
	ViewGraph ViewMode = "graph"
)

// Valid reports whether the mode is one of the known values.
func (v ViewMode) Valid() bool {
	return v == ViewJSON || v == ViewGraph
}

// Envelope is the wire form of every message.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Results holds a completed query's record lists. EdgeResults carries edges
// returned out-of-band (a companion edges-only query); it is unioned with
// edges found in QueryResults on the client, duplicates included.
type Results struct {
	QueryResults []graph.Record `json:"queryResults"`
	EdgeResults  []graph.Record `json:"edgeResults"`
}

// PageState is the complete per-view session state. The host owns it and
// resends it whole on request, so a reconnecting client can always
// reconstruct the view, including whether a query is still outstanding.
type PageState struct {
	Query          string   `json:"query"`
	IsQueryRunning bool     `json:"isQueryRunning"`
	RunningQueryID int64    `json:"runningQueryId"`
	Results        *Results `json:"results,omitempty"`
	ErrorMessage   string   `json:"errorMessage,omitempty"`
	View           ViewMode `json:"view"`
}

// Query asks the host to execute a query. Replies are tagged with QueryID.
type Query struct {
	QueryID int64  `json:"queryId"`
	Query   string `json:"query"`
}

// SetQuery persists the current query text without executing it.
type SetQuery struct {
	Query string `json:"query"`
}

// SetView persists the view preference.
type SetView struct {
	View ViewMode `json:"view"`
}

// Log is a diagnostic passthrough from the client to the host's log.
type Log struct {
	Text string `json:"text"`
}

// SetTitle carries the view's display name.
type SetTitle struct {
	Title string `json:"title"`
}

// ShowResults reports a successful query. Results is the full result set
// (vertices, edges, and arbitrary projections); Edges is the out-of-band
// edge list.
type ShowResults struct {
	QueryID int64          `json:"queryId"`
	Results []graph.Record `json:"results"`
	Edges   []graph.Record `json:"edges"`
}

// ShowQueryError reports a failed query.
type ShowQueryError struct {
	QueryID int64  `json:"queryId"`
	Error   string `json:"error"`
}

// New builds an envelope around a payload.
func New(t Type, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: t}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Envelope{Type: t, Payload: raw}, nil
}

// Decode unmarshals the envelope payload into dst.
func (e Envelope) Decode(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("message %s has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Marshal encodes the envelope for the wire.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", e.Type, err)
	}
	return data, nil
}

// Parse decodes a wire frame into an envelope. Unknown types parse fine;
// dispatch decides what to do with them.
func Parse(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("parse envelope: missing type")
	}
	return e, nil
}

// Package graph models query results as they cross the host/client boundary:
// a result set is a list of loosely typed records, each either a vertex, an
// edge, or an arbitrary projection. Records preserve unknown fields and key
// order so the raw JSON diagnostic view shows exactly what the backend
// returned.
package graph

import (
	json "github.com/goccy/go-json"
)

// Well-known record fields.
const (
	FieldType = "type"
	FieldID   = "id"
	FieldInV  = "inV"
	FieldOutV = "outV"
)

// Discriminant values for FieldType.
const (
	TypeVertex = "vertex"
	TypeEdge   = "edge"
)

// Kind discriminates the record union.
type Kind int

const (
	KindOther Kind = iota
	KindVertex
	KindEdge
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	default:
		return "other"
	}
}

// Record is one element of a query result set. Vertices carry an id; edges
// additionally carry the ids of the vertices they run from (outV) and to
// (inV). Anything else is an opaque projection that flows through untouched.
// The zero Record is an empty Other.
type Record struct {
	bag  PropertyBag
	kind Kind
	id   string
	inV  string
	outV string
}

// NewVertex returns a vertex record with the given id.
func NewVertex(id string) Record {
	var r Record
	r.bag.SetRaw(FieldID, mustEncodeString(id))
	r.bag.SetRaw(FieldType, mustEncodeString(TypeVertex))
	r.refresh()
	return r
}

// NewEdge returns an edge record running outV -> inV.
func NewEdge(id, outV, inV string) Record {
	var r Record
	r.bag.SetRaw(FieldID, mustEncodeString(id))
	r.bag.SetRaw(FieldType, mustEncodeString(TypeEdge))
	r.bag.SetRaw(FieldOutV, mustEncodeString(outV))
	r.bag.SetRaw(FieldInV, mustEncodeString(inV))
	r.refresh()
	return r
}

// Kind reports which arm of the union this record is.
func (r *Record) Kind() Kind { return r.kind }

// ID returns the record's id, or "" for records without one.
func (r *Record) ID() string { return r.id }

// InV returns the id of the vertex an edge points into.
func (r *Record) InV() string { return r.inV }

// OutV returns the id of the vertex an edge runs out of.
func (r *Record) OutV() string { return r.outV }

// IsVertex reports whether the record is a vertex.
func (r *Record) IsVertex() bool { return r.kind == KindVertex }

// IsEdge reports whether the record is an edge.
func (r *Record) IsEdge() bool { return r.kind == KindEdge }

// Properties exposes the record's full ordered field set, including the
// well-known fields.
func (r *Record) Properties() *PropertyBag { return &r.bag }

// SetProperty stores an additional field on the record. Well-known fields
// update the cached accessors.
func (r *Record) SetProperty(key string, value any) error {
	if err := r.bag.Set(key, value); err != nil {
		return err
	}
	r.refresh()
	return nil
}

// Label returns the record's display label: the "label" property if it is a
// string, else the id.
func (r *Record) Label() string {
	if s, ok := r.bag.GetString("label"); ok && s != "" {
		return s
	}
	return r.id
}

// MarshalJSON encodes the record as its underlying ordered object.
func (r Record) MarshalJSON() ([]byte, error) {
	return r.bag.MarshalJSON()
}

// UnmarshalJSON decodes any JSON object into a record, classifying it by its
// "type" field. Non-object payloads are rejected; backends wrap scalar
// projections in a "value" record before they reach here.
func (r *Record) UnmarshalJSON(data []byte) error {
	if err := r.bag.UnmarshalJSON(data); err != nil {
		return err
	}
	r.refresh()
	return nil
}

// refresh re-derives the cached discriminant fields from the bag.
func (r *Record) refresh() {
	r.id, _ = r.bag.GetString(FieldID)
	r.inV, _ = r.bag.GetString(FieldInV)
	r.outV, _ = r.bag.GetString(FieldOutV)
	switch typ, _ := r.bag.GetString(FieldType); typ {
	case TypeVertex:
		r.kind = KindVertex
	case TypeEdge:
		r.kind = KindEdge
	default:
		r.kind = KindOther
	}
}

func mustEncodeString(s string) json.RawMessage {
	raw, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string cannot fail.
		panic(err)
	}
	return raw
}

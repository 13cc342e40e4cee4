package session

import "fmt"

// QueryError describes a failed query execution for one session. The Cause's
// message is what gets relayed to the client verbatim.
type QueryError struct {
	SessionID string
	QueryID   int64
	Cause     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("session %s query %d: %v", e.SessionID, e.QueryID, e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

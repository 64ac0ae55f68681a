package store

import (
	"fmt"
	"strings"

	"github.com/zhubert/plural-port/record"
)

// SessionNotFoundError is returned when no session document with the given id
// exists anywhere under the store's session index. It carries the sessions the
// store does know about so the caller can present valid identifiers.
type SessionNotFoundError struct {
	SessionID string
	Available []record.Session
}

func (e *SessionNotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "session %q not found in record store", e.SessionID)
	if len(e.Available) > 0 {
		sb.WriteString("\nknown sessions:")
		for _, sess := range e.Available {
			fmt.Fprintf(&sb, "\n  %s  %s", sess.ID, sess.Title)
		}
	}
	return sb.String()
}

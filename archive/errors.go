package archive

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when an archive reference does not resolve to a
// file. It carries the archives that do exist so the caller can present valid
// identifiers.
type NotFoundError struct {
	Ref       string
	Available []Info
}

func (e *NotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "archive %q not found", e.Ref)
	if len(e.Available) > 0 {
		sb.WriteString("\nknown archives:")
		for _, info := range e.Available {
			fmt.Fprintf(&sb, "\n  %s", info.ID)
		}
	}
	return sb.String()
}

// InvalidError is returned when an archive is structurally incomplete: its
// staged tree is missing a session index or holds no usable session document.
type InvalidError struct {
	Ref    string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("archive %q is not a valid session archive: %s", e.Ref, e.Reason)
}

// InvalidRemapTargetError is returned when a supplied remap target is not an
// existing version-controlled directory. Extraction aborts before any
// destination write.
type InvalidRemapTargetError struct {
	Path string
	Err  error
}

func (e *InvalidRemapTargetError) Error() string {
	return fmt.Sprintf("invalid remap target %q: %v", e.Path, e.Err)
}

func (e *InvalidRemapTargetError) Unwrap() error { return e.Err }

// CreateFailedError is returned when the compression primitive exits non-zero
// while building an archive. The primitive's diagnostic output is attached.
type CreateFailedError struct {
	SessionID string
	Err       error
}

func (e *CreateFailedError) Error() string {
	return fmt.Sprintf("failed to create archive for session %s: %v", e.SessionID, e.Err)
}

func (e *CreateFailedError) Unwrap() error { return e.Err }

// ExtractFailedError is returned when the compression primitive exits
// non-zero while unpacking an archive.
type ExtractFailedError struct {
	Ref string
	Err error
}

func (e *ExtractFailedError) Error() string {
	return fmt.Sprintf("failed to extract archive %s: %v", e.Ref, e.Err)
}

func (e *ExtractFailedError) Unwrap() error { return e.Err }

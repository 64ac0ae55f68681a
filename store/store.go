// Package store reads and writes the on-disk record store: a directory tree
// of individually addressed JSON records keyed by {kind, owner id, record id}.
//
// The relative path convention implemented here is the wire contract between
// the collector, the archive layout, and the merge step — an archive's internal
// layout mirrors these paths exactly, so extraction is a structural merge.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zhubert/plural-port/record"
)

// Directory names for each record kind, relative to the store root.
const (
	sessionDirName  = "session"
	messageDirName  = "message"
	partDirName     = "part"
	diffDirName     = "session_diff"
	projectDirName  = "project"
	snapshotDirName = "snapshot"
)

// Store is a handle on one record store rooted at a directory.
type Store struct {
	root string
}

// New returns a store rooted at the given directory. The directory does not
// need to exist yet; writes create it on demand.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Abs converts a store-relative path to an absolute one.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.root, rel)
}

// Exists reports whether a file exists at the given store-relative path.
func (s *Store) Exists(rel string) bool {
	info, err := os.Stat(s.Abs(rel))
	return err == nil && !info.IsDir()
}

// SessionRel returns the store-relative path of a session document.
func SessionRel(projectID, sessionID string) string {
	return filepath.Join(sessionDirName, projectID, sessionID+".json")
}

// MessageRel returns the store-relative path of a message document.
func MessageRel(sessionID, messageID string) string {
	return filepath.Join(messageDirName, sessionID, messageID+".json")
}

// PartRel returns the store-relative path of a part document.
func PartRel(messageID, partID string) string {
	return filepath.Join(partDirName, messageID, partID+".json")
}

// DiffRel returns the store-relative path of a session's diff set document.
func DiffRel(sessionID string) string {
	return filepath.Join(diffDirName, sessionID+".json")
}

// ProjectRel returns the store-relative path of a project document.
func ProjectRel(projectID string) string {
	return filepath.Join(projectDirName, projectID+".json")
}

// SnapshotDirRel returns the store-relative snapshot tree for a project.
func SnapshotDirRel(projectID string) string {
	return filepath.Join(snapshotDirName, projectID)
}

// readJSON reads and decodes one record document.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON encodes and writes one record document, creating parents.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadSession reads a session document given its owning project.
func (s *Store) ReadSession(projectID, sessionID string) (*record.Session, error) {
	var sess record.Session
	if err := readJSON(s.Abs(SessionRel(projectID, sessionID)), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// FindSession locates a session document without knowing its project. The
// session index is scanned one project subdirectory at a time — a linear scan
// bounded by project count, which stays small in practice. Returns the session
// and its store-relative path, or a SessionNotFoundError listing the sessions
// the store does know about.
func (s *Store) FindSession(sessionID string) (*record.Session, string, error) {
	sessionRoot := s.Abs(sessionDirName)
	entries, err := os.ReadDir(sessionRoot)
	if err != nil && !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("failed to read session index: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rel := SessionRel(entry.Name(), sessionID)
		if _, err := os.Stat(s.Abs(rel)); err != nil {
			continue
		}
		sess, err := s.ReadSession(entry.Name(), sessionID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read session %s: %w", sessionID, err)
		}
		return sess, rel, nil
	}

	available, _ := s.ListSessions()
	return nil, "", &SessionNotFoundError{SessionID: sessionID, Available: available}
}

// ListSessions returns every session document in the store, newest first.
// Unreadable documents are skipped.
func (s *Store) ListSessions() ([]record.Session, error) {
	sessionRoot := s.Abs(sessionDirName)
	projects, err := os.ReadDir(sessionRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}

	var sessions []record.Session
	for _, proj := range projects {
		if !proj.IsDir() {
			continue
		}
		docs, err := os.ReadDir(filepath.Join(sessionRoot, proj.Name()))
		if err != nil {
			continue
		}
		for _, doc := range docs {
			if doc.IsDir() || !strings.HasSuffix(doc.Name(), ".json") {
				continue
			}
			var sess record.Session
			if err := readJSON(filepath.Join(sessionRoot, proj.Name(), doc.Name()), &sess); err != nil {
				continue
			}
			sessions = append(sessions, sess)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Time.Created.After(sessions[j].Time.Created)
	})
	return sessions, nil
}

// ReadProject reads a project document.
func (s *Store) ReadProject(projectID string) (*record.Project, error) {
	var proj record.Project
	if err := readJSON(s.Abs(ProjectRel(projectID)), &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// ReadMessages reads every message document for a session, ordered by
// creation time. A missing message directory means zero messages.
func (s *Store) ReadMessages(sessionID string) ([]record.Message, error) {
	dir := s.Abs(filepath.Join(messageDirName, sessionID))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read messages for %s: %w", sessionID, err)
	}

	var messages []record.Message
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var msg record.Message
		if err := readJSON(filepath.Join(dir, entry.Name()), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	record.SortMessages(messages)
	return messages, nil
}

// WriteSession writes a session document.
func (s *Store) WriteSession(sess *record.Session) error {
	return writeJSON(s.Abs(SessionRel(sess.ProjectID, sess.ID)), sess)
}

// WriteMessage writes a message document.
func (s *Store) WriteMessage(msg *record.Message) error {
	return writeJSON(s.Abs(MessageRel(msg.SessionID, msg.ID)), msg)
}

// WritePart writes a part document.
func (s *Store) WritePart(part *record.Part) error {
	return writeJSON(s.Abs(PartRel(part.MessageID, part.ID)), part)
}

// WriteDiffSet writes a session's diff set document.
func (s *Store) WriteDiffSet(sessionID string, diffs record.DiffSet) error {
	if diffs == nil {
		diffs = record.DiffSet{}
	}
	return writeJSON(s.Abs(DiffRel(sessionID)), diffs)
}

// ReadDiffSet reads a session's diff set. A missing document means nil.
func (s *Store) ReadDiffSet(sessionID string) (record.DiffSet, error) {
	var diffs record.DiffSet
	err := readJSON(s.Abs(DiffRel(sessionID)), &diffs)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return diffs, nil
}

// EnsureProject writes a project document only if none exists yet. Projects
// are created lazily on first ingest and never overwritten once present.
func (s *Store) EnsureProject(proj *record.Project) error {
	rel := ProjectRel(proj.ID)
	if s.Exists(rel) {
		return nil
	}
	return writeJSON(s.Abs(rel), proj)
}

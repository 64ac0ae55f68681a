package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zhubert/plural-port/logger"
	"github.com/zhubert/plural-port/record"
)

// CollectedFile is one file belonging to a session, recorded with its
// store-relative path and record-kind tag. The relative path is used verbatim
// both for archive staging and for merge-target computation.
type CollectedFile struct {
	RelPath string
	Kind    record.Kind
}

// Collection holds everything discovered for one session.
type Collection struct {
	Session *record.Session
	Files   []CollectedFile

	MessageCount  int
	PartCount     int
	SnapshotCount int
	HasDiff       bool
	HasProject    bool
}

// Collect walks the store's directory index to discover every file belonging
// to the given session: the session document itself, its messages and their
// parts, the diff set and owning project if present, and every opaque snapshot
// file under the project's snapshot tree. Collection is read-only.
//
// Missing message or part subdirectories are treated as zero records of that
// kind. A missing session is fatal (SessionNotFoundError).
func (s *Store) Collect(sessionID string) (*Collection, error) {
	log := logger.WithSession(sessionID)

	sess, sessionRel, err := s.FindSession(sessionID)
	if err != nil {
		return nil, err
	}

	col := &Collection{Session: sess}
	col.Files = append(col.Files, CollectedFile{RelPath: sessionRel, Kind: record.KindSession})

	// Messages, and the parts of each message
	messageDir := s.Abs(filepath.Join(messageDirName, sessionID))
	msgEntries, err := os.ReadDir(messageDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read message directory: %w", err)
	}
	for _, entry := range msgEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var msg record.Message
		if err := readJSON(filepath.Join(messageDir, entry.Name()), &msg); err != nil {
			return nil, fmt.Errorf("failed to read message document: %w", err)
		}
		col.Files = append(col.Files, CollectedFile{
			RelPath: filepath.Join(messageDirName, sessionID, entry.Name()),
			Kind:    record.KindMessage,
		})
		col.MessageCount++

		partFiles, err := s.collectParts(msg.ID)
		if err != nil {
			return nil, err
		}
		col.Files = append(col.Files, partFiles...)
		col.PartCount += len(partFiles)
	}

	// Diff set, if present
	diffRel := DiffRel(sessionID)
	if s.Exists(diffRel) {
		col.Files = append(col.Files, CollectedFile{RelPath: diffRel, Kind: record.KindDiff})
		col.HasDiff = true
	}

	// Owning project, if present
	projectRel := ProjectRel(sess.ProjectID)
	if s.Exists(projectRel) {
		col.Files = append(col.Files, CollectedFile{RelPath: projectRel, Kind: record.KindProject})
		col.HasProject = true
	}

	// Snapshot tree: opaque content-addressed files, copied without interpretation
	snapshotFiles, err := s.collectSnapshots(sess.ProjectID)
	if err != nil {
		return nil, err
	}
	col.Files = append(col.Files, snapshotFiles...)
	col.SnapshotCount = len(snapshotFiles)

	log.Info("session collected",
		"files", len(col.Files),
		"messages", col.MessageCount,
		"parts", col.PartCount,
		"snapshots", col.SnapshotCount)
	return col, nil
}

// collectParts lists every part document for a message. A missing part
// directory means the message has no parts.
func (s *Store) collectParts(messageID string) ([]CollectedFile, error) {
	partDir := s.Abs(filepath.Join(partDirName, messageID))
	entries, err := os.ReadDir(partDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read part directory: %w", err)
	}

	var files []CollectedFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, CollectedFile{
			RelPath: filepath.Join(partDirName, messageID, entry.Name()),
			Kind:    record.KindPart,
		})
	}
	return files, nil
}

// collectSnapshots recursively enumerates every file under the project's
// snapshot tree. A missing tree means no snapshots.
func (s *Store) collectSnapshots(projectID string) ([]CollectedFile, error) {
	snapshotRoot := s.Abs(SnapshotDirRel(projectID))
	if _, err := os.Stat(snapshotRoot); os.IsNotExist(err) {
		return nil, nil
	}

	var files []CollectedFile
	err := filepath.WalkDir(snapshotRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, CollectedFile{RelPath: rel, Kind: record.KindSnapshot})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk snapshot tree: %w", err)
	}
	return files, nil
}

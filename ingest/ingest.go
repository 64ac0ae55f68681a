// Package ingest shapes a session fetched from the live host into the record
// store. It runs before the first archive for a session is ever built;
// extraction never touches it.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/zhubert/plural-port/logger"
	"github.com/zhubert/plural-port/record"
	"github.com/zhubert/plural-port/repo"
	"github.com/zhubert/plural-port/store"
)

// Source is the host's read API. Implementations fetch one session's record
// set; this package treats them as a black box.
type Source interface {
	FetchSession(ctx context.Context, sessionID string) (*record.Session, error)
	FetchMessages(ctx context.Context, sessionID string) ([]record.Message, error)
	FetchParts(ctx context.Context, messageID string) ([]record.Part, error)
	FetchDiffSet(ctx context.Context, sessionID string) (record.DiffSet, error)
}

// Ingester writes a fetched session into a record store.
type Ingester struct {
	store  *store.Store
	source Source
}

func NewIngester(st *store.Store, source Source) *Ingester {
	return &Ingester{store: st, source: source}
}

// Result reports what an ingestion wrote.
type Result struct {
	SessionID      string
	ProjectID      string
	MessageCount   int
	PartCount      int
	HasDiff        bool
	ProjectCreated bool
}

// Ingest fetches the session, its messages, their parts, and its diff set from
// the source and writes them into the store. A session without a project id is
// assigned a fresh one, and the project record is created lazily from the
// session's directory if it does not already exist. Records the source ships
// without ids get generated ones so the store layout stays addressable.
func (i *Ingester) Ingest(ctx context.Context, sessionID string) (*Result, error) {
	log := logger.WithSession(sessionID)

	sess, err := i.source.FetchSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", sessionID, err)
	}

	if sess.ProjectID == "" {
		sess.ProjectID = uuid.New().String()
	}
	result := &Result{SessionID: sess.ID, ProjectID: sess.ProjectID}

	if _, err := i.store.ReadProject(sess.ProjectID); err != nil {
		proj := &record.Project{
			ID:       sess.ProjectID,
			Worktree: sess.Directory,
			Time:     sess.Time,
		}
		if repo.VerifyPath(sess.Directory) == nil {
			proj.VCS = "git"
		}
		if err := i.store.EnsureProject(proj); err != nil {
			return nil, err
		}
		result.ProjectCreated = true
	}

	if err := i.store.WriteSession(sess); err != nil {
		return nil, err
	}

	messages, err := i.source.FetchMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages for %s: %w", sessionID, err)
	}
	for idx := range messages {
		msg := &messages[idx]
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}
		msg.SessionID = sess.ID
		if err := i.store.WriteMessage(msg); err != nil {
			return nil, err
		}
		result.MessageCount++

		parts, err := i.source.FetchParts(ctx, msg.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch parts for message %s: %w", msg.ID, err)
		}
		for pidx := range parts {
			part := &parts[pidx]
			if part.ID == "" {
				part.ID = uuid.New().String()
			}
			part.MessageID = msg.ID
			part.SessionID = sess.ID
			if err := i.store.WritePart(part); err != nil {
				return nil, err
			}
			result.PartCount++
		}
	}

	diffs, err := i.source.FetchDiffSet(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch diff set for %s: %w", sessionID, err)
	}
	if diffs != nil {
		if err := i.store.WriteDiffSet(sess.ID, diffs); err != nil {
			return nil, err
		}
		result.HasDiff = true
	}

	log.Info("session ingested",
		"projectID", result.ProjectID,
		"messages", result.MessageCount,
		"parts", result.PartCount,
		"diff", result.HasDiff)
	return result, nil
}

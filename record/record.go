// Package record defines the on-disk record schema for the session record store.
//
// Every record is an individually addressed JSON document. The store indexes
// them by {kind, owner id, record id}:
//
//	session/<projectID>/<sessionID>.json
//	message/<sessionID>/<messageID>.json
//	part/<messageID>/<partID>.json
//	session_diff/<sessionID>.json
//	project/<projectID>.json
//	snapshot/<projectID>/...   (opaque, content-addressed)
//
// Snapshot files are the one non-JSON kind: they are copied byte-for-byte and
// never parsed or remapped.
package record

import (
	"sort"
	"time"
)

// Kind identifies a record variant. The set is closed: every file the store
// holds is exactly one of these.
type Kind string

const (
	KindSession  Kind = "session"
	KindMessage  Kind = "message"
	KindPart     Kind = "part"
	KindDiff     Kind = "session_diff"
	KindProject  Kind = "project"
	KindSnapshot Kind = "snapshot"
)

// Timestamps holds creation and last-update times for a record.
type Timestamps struct {
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Project represents one distinct working directory. A project is created
// lazily on first ingest and never overwritten once present.
type Project struct {
	ID       string     `json:"id"`
	Worktree string     `json:"worktree"`
	VCS      string     `json:"vcs"`
	Time     Timestamps `json:"time"`
}

// ChangeSummary aggregates the file changes a session produced.
type ChangeSummary struct {
	Files     int `json:"files"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Session is one conversational work unit, rooted at a single working
// directory. Directory is the absolute path subject to remapping when the
// session is restored on a machine where that path does not exist.
type Session struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"projectID"`
	Directory string        `json:"directory"`
	Title     string        `json:"title"`
	Time      Timestamps    `json:"time"`
	Summary   ChangeSummary `json:"summary"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Tokens holds optional token accounting for an assistant message.
type Tokens struct {
	Input  int `json:"input,omitempty"`
	Output int `json:"output,omitempty"`
}

// Message belongs to exactly one session. Messages are unordered on disk and
// ordered by creation time when presented.
type Message struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionID"`
	Role      string     `json:"role"`
	Time      Timestamps `json:"time"`
	Model     string     `json:"model,omitempty"`
	Provider  string     `json:"provider,omitempty"`
	Cost      float64    `json:"cost,omitempty"`
	Tokens    *Tokens    `json:"tokens,omitempty"`
}

// Part kinds.
const (
	PartText = "text"
	PartTool = "tool"
)

// Part is one piece of a message: a text chunk or a tool invocation.
// Kind-specific fields are optional and only populated for their kind.
type Part struct {
	ID        string `json:"id"`
	MessageID string `json:"messageID"`
	SessionID string `json:"sessionID"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Tool      string `json:"tool,omitempty"`
	State     string `json:"state,omitempty"`
	Snapshot  string `json:"snapshot,omitempty"`
}

// FileDiff describes the change to one file within a session.
type FileDiff struct {
	File      string `json:"file"`
	Before    string `json:"before"`
	After     string `json:"after"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// DiffSet is the ordered list of file diffs for a session. One document per
// session; may be empty.
type DiffSet []FileDiff

// SortMessages orders messages by creation time, oldest first. Ties are broken
// by id so the order is deterministic.
func SortMessages(messages []Message) {
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Time.Created.Equal(messages[j].Time.Created) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Time.Created.Before(messages[j].Time.Created)
	})
}

package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/zhubert/plural-port/logger"
	"github.com/zhubert/plural-port/store"
)

// Builder packages every file belonging to a session into one archive.
type Builder struct {
	store      *store.Store
	compressor Compressor
	archiveDir string
	now        func() time.Time
}

// NewBuilder returns a builder writing archives into archiveDir.
func NewBuilder(st *store.Store, compressor Compressor, archiveDir string) *Builder {
	return &Builder{
		store:      st,
		compressor: compressor,
		archiveDir: archiveDir,
		now:        time.Now,
	}
}

// BuildResult describes one built archive.
type BuildResult struct {
	ArchiveID   string
	ArchivePath string
	FileCount   int
}

// Slug lowercases a title and collapses non-alphanumeric runs to single
// hyphens, trimming leading and trailing hyphens.
func Slug(title string) string {
	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return sb.String()
}

// ArchiveID derives the human-legible archive id from a date and session
// title, e.g. "2025-01-15-fix-bug". A title with no usable characters falls
// back to "untitled". Two archives built the same day from the same title
// collide and the later one overwrites the earlier — accepted behavior.
func ArchiveID(date time.Time, title string) string {
	slug := Slug(title)
	if slug == "" {
		slug = "untitled"
	}
	return date.Format("2006-01-02") + "-" + slug
}

// Build collects every file belonging to the session, stages them into a
// fresh temporary directory at their store-relative paths, and compresses the
// staging directory into one archive file. The staging directory is removed
// on all exit paths.
func (b *Builder) Build(ctx context.Context, sessionID string) (*BuildResult, error) {
	log := logger.WithSession(sessionID)

	col, err := b.store.Collect(sessionID)
	if err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp("", "plural-port-stage-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, f := range col.Files {
		if err := copyFile(b.store.Abs(f.RelPath), filepath.Join(staging, f.RelPath)); err != nil {
			// A source file vanishing between collection and copy aborts
			// before compression is ever invoked.
			return nil, fmt.Errorf("failed to stage %s: %w", f.RelPath, err)
		}
	}

	if err := os.MkdirAll(b.archiveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	id := ArchiveID(b.now(), col.Session.Title)
	archivePath := filepath.Join(b.archiveDir, id+Extension)

	if err := b.compressor.Compress(ctx, staging, archivePath); err != nil {
		return nil, &CreateFailedError{SessionID: sessionID, Err: err}
	}

	log.Info("archive built",
		"archiveID", id,
		"path", archivePath,
		"files", len(col.Files))
	return &BuildResult{
		ArchiveID:   id,
		ArchivePath: archivePath,
		FileCount:   len(col.Files),
	}, nil
}

// copyFile copies src to dst byte-for-byte, creating parent directories.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zhubert/plural-port/logger"
	"github.com/zhubert/plural-port/record"
	"github.com/zhubert/plural-port/remap"
	"github.com/zhubert/plural-port/repo"
	"github.com/zhubert/plural-port/store"
)

// ImportedMarker is prefixed onto a restored session's title exactly once.
const ImportedMarker = "[IMPORTED] "

// Extractor merges a session archive into the record store.
type Extractor struct {
	store      *store.Store
	compressor Compressor
	resolver   *repo.Resolver
	archiveDir string
}

// NewExtractor returns an extractor merging into st. The resolver is consulted
// when the session's original directory does not exist locally and no explicit
// remap target is supplied.
func NewExtractor(st *store.Store, compressor Compressor, resolver *repo.Resolver, archiveDir string) *Extractor {
	return &Extractor{
		store:      st,
		compressor: compressor,
		resolver:   resolver,
		archiveDir: archiveDir,
	}
}

// ExtractOptions modify an extraction.
type ExtractOptions struct {
	// RemapTo, when set, is the directory the session should be rooted at.
	// It must be an existing version-controlled directory.
	RemapTo string
}

// ExtractResult reports what an extraction did. When RequiresUserInput is
// true, nothing was written: the caller must re-run with an explicit path,
// choosing from Candidates if any were found.
type ExtractResult struct {
	SessionID    string
	SessionTitle string
	FileCount    int
	PathRemapped bool
	OriginalPath string
	NewPath      string

	RequiresUserInput bool
	Candidates        []string
}

// Extract decompresses an archive into a temporary directory, locates the
// session record inside it, optionally rewrites the session's directory
// prefix across every JSON file, and merges the tree into the record store.
//
// The merge is idempotent and conflict-avoidant: a file that already exists
// at its destination path is skipped and counted as merged, never
// overwritten. Re-running an extraction after a partial failure therefore
// resumes correctly.
func (e *Extractor) Extract(ctx context.Context, ref string, opts ExtractOptions) (*ExtractResult, error) {
	log := logger.WithComponent("archive")

	archivePath, err := e.resolveRef(ref)
	if err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp("", "plural-port-extract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := e.compressor.Decompress(ctx, archivePath, staging); err != nil {
		return nil, &ExtractFailedError{Ref: ref, Err: err}
	}

	sess, sessionRel, err := findStagedSession(ref, staging)
	if err != nil {
		return nil, err
	}
	originalPath := sess.Directory

	result := &ExtractResult{
		SessionID:    sess.ID,
		SessionTitle: sess.Title,
		OriginalPath: originalPath,
	}

	// Decide the remap target before any destination write
	var target string
	if opts.RemapTo != "" {
		if err := repo.VerifyPath(opts.RemapTo); err != nil {
			return nil, &InvalidRemapTargetError{Path: opts.RemapTo, Err: err}
		}
		target = opts.RemapTo
	} else {
		res := e.resolver.Resolve(originalPath, filepath.Base(originalPath))
		if res.RequiresUserInput {
			result.RequiresUserInput = true
			result.Candidates = res.Candidates
			log.Info("extraction needs a repository path",
				"sessionID", sess.ID,
				"originalPath", originalPath,
				"candidates", len(res.Candidates))
			return result, nil
		}
		target = res.NewPath // empty when the original path is valid as-is
	}

	if target != "" {
		if err := remapStagedTree(staging, originalPath, target); err != nil {
			return nil, err
		}
		result.PathRemapped = true
		result.NewPath = target
		log.Info("staged tree remapped", "from", originalPath, "to", target)
	}

	fileCount, err := e.merge(staging)
	if err != nil {
		return nil, err
	}
	result.FileCount = fileCount

	title, err := e.markImported(sessionRel)
	if err != nil {
		return nil, err
	}
	result.SessionTitle = title

	log.Info("archive extracted",
		"sessionID", sess.ID,
		"files", fileCount,
		"remapped", result.PathRemapped)
	return result, nil
}

// resolveRef turns an archive reference — an archive id, a file name, or a
// direct path — into the path of an existing archive file.
func (e *Extractor) resolveRef(ref string) (string, error) {
	candidates := []string{
		ref,
		filepath.Join(e.archiveDir, ref),
		filepath.Join(e.archiveDir, ref+Extension),
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	available, _ := List(e.archiveDir)
	return "", &NotFoundError{Ref: ref, Available: available}
}

// findStagedSession locates the single session document in a staged tree by
// scanning the session index the same way the collector scans the store. The
// extractor operates on a disconnected filesystem subtree, so this discovery
// is repeated here rather than shared with a live store handle.
func findStagedSession(ref, staging string) (*record.Session, string, error) {
	sessionRoot := filepath.Join(staging, "session")
	projects, err := os.ReadDir(sessionRoot)
	if err != nil {
		return nil, "", &InvalidError{Ref: ref, Reason: "missing session index"}
	}

	var found *record.Session
	var foundRel string
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
			path := filepath.Join(sessionRoot, proj.Name(), doc.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, "", fmt.Errorf("failed to read staged session: %w", err)
			}
			var sess record.Session
			if err := json.Unmarshal(data, &sess); err != nil {
				return nil, "", &InvalidError{Ref: ref, Reason: "malformed session document"}
			}
			if found != nil {
				return nil, "", &InvalidError{Ref: ref, Reason: "multiple session documents"}
			}
			found = &sess
			foundRel = filepath.Join("session", proj.Name(), doc.Name())
		}
	}

	if found == nil {
		return nil, "", &InvalidError{Ref: ref, Reason: "no session document"}
	}
	return found, foundRel, nil
}

// remapStagedTree rewrites the path prefix in every JSON file under staging.
// Non-JSON files (snapshot objects) are left untouched.
func remapStagedTree(staging, oldPath, newPath string) error {
	return filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		return remap.File(path, oldPath, newPath)
	})
}

// merge walks the staged tree and copies each file to its corresponding
// store path. Existing destination files are skipped and counted as merged —
// snapshot objects are content-addressed (same path means same content), and
// the same rule is applied uniformly to the JSON record kinds.
func (e *Extractor) merge(staging string) (int, error) {
	count := 0
	err := filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}

		count++
		if e.store.Exists(rel) {
			return nil
		}
		if err := copyFile(path, e.store.Abs(rel)); err != nil {
			return fmt.Errorf("failed to merge %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// markImported prefixes the destination session's title with the imported
// marker, exactly once, and returns the effective title. The destination copy
// is re-read so the reported title is whatever is actually on disk.
func (e *Extractor) markImported(sessionRel string) (string, error) {
	path := e.store.Abs(sessionRel)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read merged session: %w", err)
	}

	var sess record.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return "", fmt.Errorf("failed to parse merged session: %w", err)
	}

	if strings.HasPrefix(sess.Title, ImportedMarker) {
		return sess.Title, nil
	}

	sess.Title = ImportedMarker + sess.Title
	out, err := json.MarshalIndent(&sess, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode merged session: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return "", fmt.Errorf("failed to write merged session: %w", err)
	}
	return sess.Title, nil
}

// Package repo resolves the repository path a restored session should be
// rooted at. When a session's original working directory does not exist on
// this machine, the resolver searches conventional project-root directories
// for a same-named version-controlled directory, and refuses to guess when
// more than one matches.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zhubert/plural-port/config"
	"github.com/zhubert/plural-port/logger"
)

// Marker is the directory entry that confirms a candidate is a repository
// root. A .git file (worktree pointer) counts as well as a directory.
const Marker = ".git"

// Resolution is the structured outcome of a resolve attempt. Ambiguity and
// zero-candidate outcomes are not errors: the caller must supply a path.
type Resolution struct {
	// Resolved is true when a usable path was determined without user input.
	Resolved bool

	// NewPath is the adopted path when the resolver found exactly one
	// candidate. Empty when the original path was valid as-is.
	NewPath string

	// RequiresUserInput is true when the caller must supply an explicit path:
	// either no candidate was found or several were.
	RequiresUserInput bool

	// Candidates lists every same-named repository found, for the caller to
	// choose from. Sorted for deterministic presentation.
	Candidates []string
}

// Resolver searches a fixed list of roots to a bounded depth.
type Resolver struct {
	searchRoots []string
	searchDepth int
}

// NewResolver builds a resolver from the tool configuration.
func NewResolver(cfg *config.Config) *Resolver {
	depth := cfg.SearchDepth
	if depth < 1 {
		depth = config.DefaultSearchDepth
	}
	return &Resolver{
		searchRoots: cfg.SearchRoots,
		searchDepth: depth,
	}
}

// Resolve determines where a session rooted at originalPath should live on
// this machine. Policy, in order:
//
//  1. originalPath exists locally → used unchanged, no search.
//  2. Search the roots for a directory named projectName bearing the marker.
//  3. Zero candidates → caller must supply a path.
//  4. Exactly one candidate → adopted automatically.
//  5. More than one candidate → caller must choose; never guess.
func (r *Resolver) Resolve(originalPath, projectName string) Resolution {
	log := logger.WithComponent("repo")

	if dirExists(originalPath) {
		log.Debug("original path exists locally", "path", originalPath)
		return Resolution{Resolved: true}
	}

	candidates := r.findCandidates(projectName)
	log.Info("searched for repository",
		"project", projectName,
		"originalPath", originalPath,
		"candidates", len(candidates))

	switch len(candidates) {
	case 0:
		return Resolution{RequiresUserInput: true}
	case 1:
		return Resolution{Resolved: true, NewPath: candidates[0]}
	default:
		return Resolution{RequiresUserInput: true, Candidates: candidates}
	}
}

// findCandidates searches every root for directories named projectName that
// contain the version-control marker, de-duplicating across roots.
func (r *Resolver) findCandidates(projectName string) []string {
	seen := make(map[string]bool)
	var candidates []string

	for _, root := range r.searchRoots {
		if !dirExists(root) {
			continue
		}
		r.search(root, projectName, 1, func(path string) {
			// Resolve symlinks for consistent comparison across overlapping roots
			key := path
			if resolved, err := filepath.EvalSymlinks(path); err == nil {
				key = resolved
			}
			if seen[key] {
				return
			}
			seen[key] = true
			candidates = append(candidates, path)
		})
	}

	sort.Strings(candidates)
	return candidates
}

// search recursively scans dir up to the resolver's depth bound, skipping
// hidden directories. Matches do not recurse further.
func (r *Resolver) search(dir, projectName string, depth int, found func(string)) {
	if depth > r.searchDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return // unreadable directories are simply skipped
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if entry.Name() == projectName && hasMarker(path) {
			found(path)
			continue
		}
		r.search(path, projectName, depth+1, found)
	}
}

// VerifyPath independently checks that an explicitly supplied path is an
// existing directory containing the version-control marker. Used both to
// validate resolver output indirectly and user-supplied overrides directly.
func VerifyPath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}
	if !hasMarker(path) {
		return fmt.Errorf("not a version-controlled directory (no %s): %s", Marker, path)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasMarker(path string) bool {
	_, err := os.Stat(filepath.Join(path, Marker))
	return err == nil
}

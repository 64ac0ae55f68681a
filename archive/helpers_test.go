package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zhubert/plural-port/config"
	"github.com/zhubert/plural-port/record"
	"github.com/zhubert/plural-port/repo"
	"github.com/zhubert/plural-port/store"
)

// fakeCompressor packs a directory into a single JSON file mapping relative
// paths to contents. It keeps the archive a regular file, like tar would,
// without shelling out.
type fakeCompressor struct {
	failCompress   bool
	failDecompress bool
}

func (f *fakeCompressor) Compress(ctx context.Context, dir, archivePath string) error {
	if f.failCompress {
		return errors.New("tar failed: gzip: broken pipe: exit status 2")
	}

	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = data
		return nil
	})
	if err != nil {
		return err
	}

	data, err := json.Marshal(files)
	if err != nil {
		return err
	}
	return os.WriteFile(archivePath, data, 0644)
}

func (f *fakeCompressor) Decompress(ctx context.Context, archivePath, dir string) error {
	if f.failDecompress {
		return errors.New("tar failed: not in gzip format: exit status 2")
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		return err
	}
	var files map[string][]byte
	if err := json.Unmarshal(data, &files); err != nil {
		return err
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			return err
		}
	}
	return nil
}

// seedSource populates a store with one session: two messages with one part
// each, a diff set, a project, and one snapshot file. The session is rooted
// at directory, and one part carries a nested path under it.
func seedSource(t *testing.T, s *store.Store, directory string) {
	t.Helper()
	base := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

	sess := &record.Session{
		ID:        "s1",
		ProjectID: "p1",
		Directory: directory,
		Title:     "Fix bug",
		Time:      record.Timestamps{Created: base},
	}
	if err := s.WriteSession(sess); err != nil {
		t.Fatal(err)
	}

	for i, id := range []string{"m1", "m2"} {
		msg := &record.Message{
			ID:        id,
			SessionID: "s1",
			Role:      record.RoleUser,
			Time:      record.Timestamps{Created: base.Add(time.Duration(i) * time.Minute)},
		}
		if err := s.WriteMessage(msg); err != nil {
			t.Fatal(err)
		}
		part := &record.Part{
			ID:        id + "-pt",
			MessageID: id,
			SessionID: "s1",
			Type:      record.PartText,
			Text:      directory + "/src/x.ts",
		}
		if err := s.WritePart(part); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.WriteDiffSet("s1", record.DiffSet{{File: "src/x.ts", Additions: 3, Deletions: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureProject(&record.Project{ID: "p1", Worktree: directory, VCS: "git"}); err != nil {
		t.Fatal(err)
	}

	snapPath := s.Abs(filepath.Join("snapshot", "p1", "objects", "abcdef"))
	if err := os.MkdirAll(filepath.Dir(snapPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(snapPath, []byte("opaque blob"), 0644); err != nil {
		t.Fatal(err)
	}
}

// seededSourceFileCount is the number of files seedSource writes:
// 1 session + 2 messages + 2 parts + 1 diff + 1 project + 1 snapshot.
const seededSourceFileCount = 8

// buildSeededArchive builds an archive from a freshly seeded source store and
// returns its path.
func buildSeededArchive(t *testing.T, directory string) string {
	t.Helper()
	src := store.New(t.TempDir())
	seedSource(t, src, directory)

	builder := NewBuilder(src, &fakeCompressor{}, t.TempDir())
	builder.now = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }

	result, err := builder.Build(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return result.ArchivePath
}

func newTestResolver(t *testing.T, roots ...string) *repo.Resolver {
	t.Helper()
	if len(roots) == 0 {
		roots = []string{t.TempDir()}
	}
	return repo.NewResolver(&config.Config{
		StoreDir:    "/unused",
		ArchiveDir:  "/unused",
		SearchRoots: roots,
		SearchDepth: 3,
	})
}

// makeRepoDir creates a directory with a .git marker.
func makeRepoDir(t *testing.T, dir string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func readSessionDoc(t *testing.T, s *store.Store, projectID, sessionID string) *record.Session {
	t.Helper()
	sess, err := s.ReadSession(projectID, sessionID)
	if err != nil {
		t.Fatalf("ReadSession: %v", err)
	}
	return sess
}

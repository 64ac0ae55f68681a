package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Info describes one archive on disk.
type Info struct {
	ID      string
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns every archive in archiveDir, newest first. A missing directory
// means no archives.
func List(archiveDir string) ([]Info, error) {
	entries, err := os.ReadDir(archiveDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			ID:      strings.TrimSuffix(entry.Name(), Extension),
			Path:    filepath.Join(archiveDir, entry.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}

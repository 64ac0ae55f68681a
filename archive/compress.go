// Package archive builds portable session archives from the record store and
// merges extracted archives back into it. An archive's internal layout mirrors
// the store's relative paths exactly, so extraction is a structural merge.
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhubert/plural-port/exec"
)

// Compressor abstracts the compression primitive so the build and extract
// logic is testable without invoking an external process. The concrete
// implementation shells out to tar(1).
type Compressor interface {
	// Compress packs the contents of dir into a single archive file.
	Compress(ctx context.Context, dir, archivePath string) error

	// Decompress unpacks an archive file into dir.
	Decompress(ctx context.Context, archivePath, dir string) error
}

// Extension is the file extension for archives produced by TarCompressor.
const Extension = ".tar.gz"

// TarCompressor compresses and decompresses directories with tar(1).
type TarCompressor struct {
	executor exec.CommandExecutor
}

// NewTarCompressor returns a compressor backed by the given executor.
func NewTarCompressor(executor exec.CommandExecutor) *TarCompressor {
	return &TarCompressor{executor: executor}
}

// Compress packs dir into archivePath as a gzipped tarball. The archive holds
// dir-relative paths so extraction reproduces the tree anywhere.
func (t *TarCompressor) Compress(ctx context.Context, dir, archivePath string) error {
	output, err := t.executor.CombinedOutput(ctx, dir, "tar", "-czf", archivePath, "-C", dir, ".")
	if err != nil {
		return fmt.Errorf("tar failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Decompress unpacks archivePath into dir.
func (t *TarCompressor) Decompress(ctx context.Context, archivePath, dir string) error {
	output, err := t.executor.CombinedOutput(ctx, dir, "tar", "-xzf", archivePath, "-C", dir)
	if err != nil {
		return fmt.Errorf("tar failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

var _ Compressor = (*TarCompressor)(nil)

package archive

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/teamcutter/unarc/internal/domain"
)

// TarArchive drives an external GNU tar. Compressed archives are decoded
// in-process and streamed to tar on stdin, so tar never needs its own
// gzip/zstd/xz/bzip2 support.
type TarArchive struct {
	path string
	opts options
}

func NewTar(path string, opts ...Option) *TarArchive {
	return &TarArchive{
		path: path,
		opts: newOptions(opts),
	}
}

func (ta *TarArchive) Path() string {
	return ta.path
}

// Entries runs `tar -tvf` on every call.
func (ta *TarArchive) Entries(ctx context.Context) ([]domain.Entry, error) {
	src, err := openSource(ta.path)
	if err != nil {
		return nil, fmt.Errorf("tar: %w", err)
	}
	defer src.Close()

	cmd := command(ctx, ta.opts.tarPath, "-tvf", src.Arg())
	if src.stream != nil {
		cmd.Stdin = src.stream
	}

	out, err := runListing(cmd)
	if err != nil {
		return nil, fmt.Errorf("tar: %w", err)
	}

	entries := ParseListing(out, tarLayout)
	ta.opts.logger.Debug("archive listed",
		zap.String("archive", ta.path),
		zap.String("compression", string(src.compression)),
		zap.Int("entries", len(entries)))

	return entries, nil
}

// Extract lists the archive, creates dst and starts `tar -xhvf` into it. It
// returns once tar is running. Cancelling ctx kills the process.
func (ta *TarArchive) Extract(ctx context.Context, dst string) (domain.Updater, error) {
	entries, err := ta.Entries(ctx)
	if err != nil {
		return nil, err
	}
	index := NewIndex(entries)

	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, fmt.Errorf("tar: %w", err)
	}

	src, err := openSource(ta.path)
	if err != nil {
		return nil, fmt.Errorf("tar: %w", err)
	}

	cmd := command(ctx, ta.opts.tarPath, "-xhvf", src.Arg(), "-C", dst)
	if src.stream != nil {
		cmd.Stdin = src.stream
	}

	u, err := StartUpdater(cmd, index.Total(), index.Lookup,
		WithCleanup(src.Close),
		WithUpdaterLogger(ta.opts.logger))
	if err != nil {
		return nil, err
	}
	return u, nil
}

var _ domain.Archive = (*TarArchive)(nil)

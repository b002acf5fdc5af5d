package archive

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/teamcutter/unarc/internal/domain"
)

// ZipArchive drives Info-ZIP: zipinfo for listing, unzip for extraction.
type ZipArchive struct {
	path string
	opts options
}

func NewZip(path string, opts ...Option) *ZipArchive {
	return &ZipArchive{
		path: path,
		opts: newOptions(opts),
	}
}

func (za *ZipArchive) Path() string {
	return za.path
}

func (za *ZipArchive) Entries(ctx context.Context) ([]domain.Entry, error) {
	out, err := runListing(command(ctx, za.opts.zipinfoPath, za.path))
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}

	entries := ParseListing(out, zipLayout)
	za.opts.logger.Debug("archive listed",
		zap.String("archive", za.path),
		zap.Int("entries", len(entries)))

	return entries, nil
}

func (za *ZipArchive) Extract(ctx context.Context, dst string) (domain.Updater, error) {
	entries, err := za.Entries(ctx)
	if err != nil {
		return nil, err
	}
	index := NewIndex(entries)

	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}

	lookup := func(line string) (int64, bool) {
		p, ok := unzipCompletedPath(line, dst)
		if !ok {
			return 0, false
		}
		return index.Lookup(p)
	}

	u, err := StartUpdater(command(ctx, za.opts.unzipPath, "-o", za.path, "-d", dst),
		index.Total(), lookup,
		WithUpdaterLogger(za.opts.logger))
	if err != nil {
		return nil, err
	}
	return u, nil
}

var unzipActions = []string{"inflating:", "extracting:", "creating:", "linking:"}

// unzipCompletedPath turns a line like "  inflating: dst/a/b.txt" into the
// archive path "a/b.txt".
func unzipCompletedPath(line, dst string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, action := range unzipActions {
		rest, ok := strings.CutPrefix(line, action)
		if !ok {
			continue
		}
		p := strings.TrimSpace(rest)
		if action == "linking:" {
			p, _, _ = strings.Cut(p, " -> ")
			p = strings.TrimSpace(p)
		}
		return strings.TrimPrefix(p, strings.TrimSuffix(dst, "/")+"/"), true
	}
	return "", false
}

var _ domain.Archive = (*ZipArchive)(nil)

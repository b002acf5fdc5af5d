package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/teamcutter/unarc/internal/domain"
)

// HTTPFetcher downloads archives into outputDir, drawing a byte progress bar
// while it goes.
type HTTPFetcher struct {
	client    *http.Client
	outputDir string
	progress  io.Writer
	logger    *zap.Logger
}

type Option func(*HTTPFetcher)

// WithProgressOutput redirects the progress bar; io.Discard hides it.
func WithProgressOutput(w io.Writer) Option {
	return func(f *HTTPFetcher) {
		f.progress = w
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

func New(outputDir string, timeout time.Duration, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		outputDir: outputDir,
		progress:  os.Stderr,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pkg domain.Package) domain.FetchResult {
	path, err := f.fetch(ctx, pkg)
	if err != nil {
		return domain.FetchResult{Package: pkg.Name, Version: pkg.Version, Error: err}
	}
	return domain.FetchResult{Package: pkg.Name, Version: pkg.Version, Path: path}
}

func (f *HTTPFetcher) fetch(ctx context.Context, pkg domain.Package) (string, error) {
	filename := fmt.Sprintf("%s-%s%s", pkg.Name, pkg.Version, extFromURL(pkg.DownloadURL))
	dst := filepath.Join(f.outputDir, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pkg.DownloadURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status: %d", pkg.DownloadURL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	file, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer file.Close()

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", pkg.Name)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(f.progress, "\n") }),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)

	n, err := io.Copy(io.MultiWriter(file, bar), resp.Body)
	if err != nil {
		os.Remove(dst)
		return "", err
	}
	_ = bar.Finish()

	f.logger.Debug("archive downloaded",
		zap.String("package", pkg.Name),
		zap.String("url", pkg.DownloadURL),
		zap.String("path", dst),
		zap.Int64("bytes", n))

	return dst, nil
}

func extFromURL(rawURL string) string {
	u := path.Base(rawURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	lower := strings.ToLower(u)
	for _, ext := range domain.Extensions() {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return path.Ext(u)
}

var _ domain.Fetcher = (*HTTPFetcher)(nil)

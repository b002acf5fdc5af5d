package archive

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Option configures an archive backend.
type Option func(*options)

type options struct {
	tarPath     string
	zipinfoPath string
	unzipPath   string
	logger      *zap.Logger
}

func newOptions(opts []Option) options {
	o := options{
		tarPath:     "tar",
		zipinfoPath: "zipinfo",
		unzipPath:   "unzip",
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTarPath sets the tar binary. Defaults to "tar" on $PATH.
func WithTarPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.tarPath = path
		}
	}
}

// WithZipinfoPath sets the binary used to list zip archives.
func WithZipinfoPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.zipinfoPath = path
		}
	}
}

// WithUnzipPath sets the binary used to extract zip archives.
func WithUnzipPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.unzipPath = path
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// runListing runs cmd to completion and returns its stdout. A non-zero exit is
// an error carrying whatever the tool wrote to stderr.
func runListing(cmd *exec.Cmd) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("listing failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("listing failed: %w", err)
	}

	return stdout.String(), nil
}

func command(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

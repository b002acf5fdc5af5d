package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teamcutter/unarc/internal/domain"
)

var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Open picks a backend from the file name. It does not touch the file.
func Open(path string, opts ...Option) (domain.Archive, error) {
	lower := strings.ToLower(path)

	switch {
	case strings.HasSuffix(lower, ".zip"):
		return NewZip(path, opts...), nil
	case isTarArchive(lower):
		return NewTar(path, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Opener binds opts into a domain.Opener.
func Opener(opts ...Option) domain.Opener {
	return func(path string) (domain.Archive, error) {
		return Open(path, opts...)
	}
}

func isTarArchive(name string) bool {
	tarExts := []string{".tar.gz", ".tar.zst", ".tar.xz", ".tar.bz2", ".tgz", ".txz", ".tzst", ".tbz2", ".tar"}
	for _, ext := range tarExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

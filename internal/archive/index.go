package archive

import (
	"strings"

	"github.com/teamcutter/unarc/internal/domain"
)

// LookupFunc maps a path reported by an extraction backend to the size the
// listing predicted for it.
type LookupFunc func(path string) (int64, bool)

// Index is the path to size table built from a listing. It is not modified
// after NewIndex returns.
type Index struct {
	sizes map[string]int64
	total int64
}

// NewIndex builds an Index. Duplicate paths keep the last size seen.
func NewIndex(entries []domain.Entry) *Index {
	sizes := make(map[string]int64, len(entries))
	for _, e := range entries {
		sizes[normalizePath(e.Path)] = e.Size
	}

	var total int64
	for _, size := range sizes {
		total += size
	}

	return &Index{sizes: sizes, total: total}
}

func (i *Index) Lookup(path string) (int64, bool) {
	size, ok := i.sizes[normalizePath(path)]
	return size, ok
}

// Total is the sum of all indexed sizes.
func (i *Index) Total() int64 {
	return i.total
}

func (i *Index) Len() int {
	return len(i.sizes)
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return strings.TrimSuffix(p, "/")
}

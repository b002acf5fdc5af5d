package domain

import (
	"context"
)

// Archive is implemented by every archive backend. Callers never need to know
// which format sits behind it.
type Archive interface {
	Path() string
	Entries(ctx context.Context) ([]Entry, error)
	Extract(ctx context.Context, dst string) (Updater, error)
}

// Opener creates an Archive handle for a file on disk. Opening does no I/O.
type Opener func(path string) (Archive, error)

// Updater is the live handle of a running extraction.
type Updater interface {
	Progress() Progress
	IsFinished() bool
	Done() <-chan struct{}
	Wait(ctx context.Context) error
	Close() error
}

type Fetcher interface {
	Fetch(ctx context.Context, pkg Package) FetchResult
}

type Cache interface {
	Has(name, version string) bool
	GetPath(name, version string) string
	Store(name, version, src string) (string, error)
	Remove(name string) error
	Size() (int64, error)
	Clear() error
}

type State interface {
	BeginInstall(pkg *InstalledPackage) error
	Add(pkg *InstalledPackage) error
	IsInstalled(name string) (bool, *InstalledPackage, error)
	ListInstalled() (map[string]*InstalledPackage, error)
	Remove(name string) error
}

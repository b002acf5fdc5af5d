package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teamcutter/unarc/internal/domain"
)

var (
	ErrAlreadyInstalled = errors.New("already installed")
	ErrNotInstalled     = errors.New("not installed")
)

// ProgressFunc is called with extraction progress on every poll.
type ProgressFunc func(domain.Progress)

// Manager sequences download, cache, extraction and bookkeeping for a
// package. It knows nothing about archive formats; the Opener decides.
type Manager struct {
	fetcher      domain.Fetcher
	cache        domain.Cache
	open         domain.Opener
	state        domain.State
	packagesDir  string
	pollInterval time.Duration
	logger       *zap.Logger
}

type Option func(*Manager)

func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func New(
	fetcher domain.Fetcher,
	cache domain.Cache,
	open domain.Opener,
	state domain.State,
	packagesDir string,
	opts ...Option,
) *Manager {
	m := &Manager{
		fetcher:      fetcher,
		cache:        cache,
		open:         open,
		state:        state,
		packagesDir:  packagesDir,
		pollInterval: 100 * time.Millisecond,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Install fetches pkg (or reuses the cached archive) and extracts it into
// <packagesDir>/<name>/<version>. A failed extraction leaves neither files
// nor a record behind.
func (m *Manager) Install(ctx context.Context, pkg domain.Package, onProgress ProgressFunc) (*domain.InstalledPackage, error) {
	installed, _, err := m.state.IsInstalled(pkg.Name)
	if err != nil {
		return nil, err
	}
	if installed {
		return nil, fmt.Errorf("package %s %w", pkg.Name, ErrAlreadyInstalled)
	}

	archivePath, err := m.archiveFor(ctx, pkg)
	if err != nil {
		return nil, err
	}

	a, err := m.open(archivePath)
	if err != nil {
		return nil, err
	}

	record := &domain.InstalledPackage{
		Name:    pkg.Name,
		Version: pkg.Version,
		URL:     pkg.DownloadURL,
		Archive: archivePath,
		Path:    filepath.Join(m.packagesDir, pkg.Name, pkg.Version),
	}
	if err := m.state.BeginInstall(record); err != nil {
		return nil, err
	}

	progress, err := m.extract(ctx, a, record.Path, onProgress)
	if err != nil {
		m.logger.Warn("extraction failed, cleaning up",
			zap.String("package", pkg.Name),
			zap.String("path", record.Path),
			zap.Error(err))
		os.RemoveAll(record.Path)
		m.state.Remove(pkg.Name)
		return nil, fmt.Errorf("installing %s: %w", pkg.Name, err)
	}

	record.TotalSize = progress.Total
	record.ExtractedSize = progress.Done
	record.InstalledAt = time.Now()
	if err := m.state.Add(record); err != nil {
		return nil, err
	}

	m.logger.Info("package installed",
		zap.String("package", pkg.Name),
		zap.String("version", pkg.Version),
		zap.Int64("bytes", progress.Done))

	return record, nil
}

func (m *Manager) archiveFor(ctx context.Context, pkg domain.Package) (string, error) {
	if m.cache.Has(pkg.Name, pkg.Version) {
		return m.cache.GetPath(pkg.Name, pkg.Version), nil
	}

	result := m.fetcher.Fetch(ctx, pkg)
	if result.Error != nil {
		return "", result.Error
	}

	return m.cache.Store(pkg.Name, pkg.Version, result.Path)
}

// extract drives the Updater until the process exits, reporting progress on
// every tick and once more at the end.
func (m *Manager) extract(ctx context.Context, a domain.Archive, dst string, onProgress ProgressFunc) (domain.Progress, error) {
	u, err := a.Extract(ctx, dst)
	if err != nil {
		return domain.Progress{}, err
	}
	defer u.Close()

	report := func() domain.Progress {
		p := u.Progress()
		if onProgress != nil {
			onProgress(p)
		}
		return p
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report()
		case <-u.Done():
			p := report()
			if err := u.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return p, ctx.Err()
				}
				return p, err
			}
			return p, nil
		case <-ctx.Done():
			u.Close()
			return u.Progress(), ctx.Err()
		}
	}
}

// Uninstall removes every version of name from the packages dir, and its
// cached archives when purge is set.
func (m *Manager) Uninstall(name string, purge bool) (*domain.InstalledPackage, error) {
	installed, pkg, err := m.state.IsInstalled(name)
	if err != nil {
		return nil, err
	}
	if !installed {
		return nil, fmt.Errorf("package %s is %w", name, ErrNotInstalled)
	}

	if err := os.RemoveAll(filepath.Join(m.packagesDir, name)); err != nil {
		return nil, err
	}

	if purge {
		if err := m.cache.Remove(name); err != nil {
			return nil, err
		}
	}

	if err := m.state.Remove(name); err != nil {
		return nil, err
	}

	return pkg, nil
}

// List returns installed packages sorted by name.
func (m *Manager) List() ([]*domain.InstalledPackage, error) {
	installed, err := m.state.ListInstalled()
	if err != nil {
		return nil, err
	}

	pkgs := make([]*domain.InstalledPackage, 0, len(installed))
	for _, pkg := range installed {
		pkgs = append(pkgs, pkg)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })

	return pkgs, nil
}

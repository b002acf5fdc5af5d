package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/teamcutter/unarc/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS installs (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL UNIQUE,
    version        TEXT NOT NULL,
    url            TEXT NOT NULL DEFAULT '',
    archive        TEXT NOT NULL DEFAULT '',
    path           TEXT NOT NULL,
    total_size     INTEGER NOT NULL DEFAULT 0,
    extracted_size INTEGER NOT NULL DEFAULT 0,
    status         TEXT NOT NULL DEFAULT 'installed',
    installed_at   TEXT NOT NULL
);
`

const (
	statusPending   = "pending"
	statusInstalled = "installed"
)

// SQLiteState records installs. A row is written as pending before
// extraction starts and flipped to installed once it succeeds, so an
// interrupted extraction can be cleaned up on the next open.
type SQLiteState struct {
	mu     sync.RWMutex
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLite(dbPath string, logger *zap.Logger) (*SQLiteState, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteState{db: db, logger: logger}

	if err := s.recover(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to recover: %w", err)
	}

	return s, nil
}

// recover removes whatever an interrupted extraction left on disk.
func (s *SQLiteState) recover() error {
	rows, err := s.db.Query("SELECT name, path FROM installs WHERE status = ?", statusPending)
	if err != nil {
		return err
	}

	type pending struct{ name, path string }
	var stale []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.name, &p.path); err != nil {
			rows.Close()
			return err
		}
		stale = append(stale, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range stale {
		s.logger.Warn("recovering from interrupted install",
			zap.String("package", p.name),
			zap.String("path", p.path))

		if err := os.RemoveAll(p.path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p.path, err)
		}
		if _, err := s.db.Exec("DELETE FROM installs WHERE name = ?", p.name); err != nil {
			return fmt.Errorf("failed to delete pending package %s: %w", p.name, err)
		}
	}

	return nil
}

func (s *SQLiteState) upsert(pkg *domain.InstalledPackage, status string) error {
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	if pkg.InstalledAt.IsZero() {
		pkg.InstalledAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM installs WHERE name = ? AND id != ?", pkg.Name, pkg.ID); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO installs
		(id, name, version, url, archive, path, total_size, extracted_size, status, installed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pkg.ID, pkg.Name, pkg.Version, pkg.URL, pkg.Archive, pkg.Path,
		pkg.TotalSize, pkg.ExtractedSize, status,
		pkg.InstalledAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// BeginInstall records pkg as pending and assigns it an ID.
func (s *SQLiteState) BeginInstall(pkg *domain.InstalledPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(pkg, statusPending)
}

// Add records pkg as installed, replacing its pending row if there is one.
func (s *SQLiteState) Add(pkg *domain.InstalledPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(pkg, statusInstalled)
}

func (s *SQLiteState) IsInstalled(name string) (bool, *domain.InstalledPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pkg, err := scanPkg(s.db.QueryRow(selectInstalled+" AND name = ?", statusInstalled, name))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, pkg, nil
}

func (s *SQLiteState) ListInstalled() (map[string]*domain.InstalledPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(selectInstalled, statusInstalled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pkgs := make(map[string]*domain.InstalledPackage)
	for rows.Next() {
		pkg, err := scanPkg(rows)
		if err != nil {
			return nil, err
		}
		pkgs[pkg.Name] = pkg
	}

	return pkgs, rows.Err()
}

func (s *SQLiteState) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM installs WHERE name = ?", name)
	return err
}

func (s *SQLiteState) Close() error {
	return s.db.Close()
}

const selectInstalled = `
	SELECT id, name, version, url, archive, path, total_size, extracted_size, installed_at
	FROM installs WHERE status = ?`

type scanner interface {
	Scan(dest ...any) error
}

func scanPkg(row scanner) (*domain.InstalledPackage, error) {
	var pkg domain.InstalledPackage
	var installedAt string

	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.Version, &pkg.URL, &pkg.Archive, &pkg.Path,
		&pkg.TotalSize, &pkg.ExtractedSize, &installedAt); err != nil {
		return nil, err
	}
	pkg.InstalledAt, _ = time.Parse(time.RFC3339, installedAt)

	return &pkg, nil
}

var _ domain.State = (*SQLiteState)(nil)

package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/teamcutter/unarc/internal/domain"
)

// DiskCache keeps downloaded archives under <dir>/<name>/<version>/package<ext>.
type DiskCache struct {
	sync.RWMutex
	dir string
}

func New(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &DiskCache{dir: dir}, nil
}

// GetPath returns where the archive for name/version lives, whether or not it
// exists. "latest" resolves to the highest cached version.
func (c *DiskCache) GetPath(name, version string) string {
	c.RLock()
	defer c.RUnlock()
	return c.getPath(name, version)
}

func (c *DiskCache) getPath(name, version string) string {
	actual := version
	if version == "latest" {
		entries, _ := os.ReadDir(filepath.Join(c.dir, name))
		var versions []string
		for _, e := range entries {
			if e.IsDir() {
				versions = append(versions, e.Name())
			}
		}
		if len(versions) > 0 {
			sort.Strings(versions)
			actual = versions[len(versions)-1]
		}
	}

	dir := filepath.Join(c.dir, name, actual)
	for _, ext := range domain.Extensions() {
		path := filepath.Join(dir, "package"+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return filepath.Join(dir, "package.tar.gz")
}

func (c *DiskCache) Has(name, version string) bool {
	c.RLock()
	defer c.RUnlock()
	_, err := os.Stat(c.getPath(name, version))
	return err == nil
}

// Store moves src into the cache, keeping its archive extension.
func (c *DiskCache) Store(name, version, src string) (string, error) {
	c.Lock()
	defer c.Unlock()

	destDir := filepath.Join(c.dir, name, version)
	destPath := filepath.Join(destDir, "package"+archiveExt(src))

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	if err := os.Rename(src, destPath); err != nil {
		return "", err
	}

	return destPath, nil
}

// Remove drops every cached version of name.
func (c *DiskCache) Remove(name string) error {
	c.Lock()
	defer c.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, name))
}

func (c *DiskCache) Size() (int64, error) {
	c.RLock()
	defer c.RUnlock()

	var size int64

	err := filepath.Walk(c.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return size, err
}

func (c *DiskCache) Clear() error {
	c.Lock()
	defer c.Unlock()

	return os.RemoveAll(c.dir)
}

func archiveExt(path string) string {
	base := strings.ToLower(filepath.Base(path))
	for _, ext := range domain.Extensions() {
		if len(base) > len(ext) && strings.HasSuffix(base, ext) {
			return ext
		}
	}

	return filepath.Ext(base)
}

var _ domain.Cache = (*DiskCache)(nil)

package domain

import "time"

// Entry is one member of an archive as reported by a backend listing.
type Entry struct {
	Path string
	Size int64
}

// Progress is a snapshot of an extraction: bytes confirmed on disk against
// bytes predicted by the listing.
type Progress struct {
	Done  int64
	Total int64
}

func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total) * 100
}

type Package struct {
	Name        string
	Version     string
	DownloadURL string
}

type FetchResult struct {
	Package string
	Version string
	Path    string
	Error   error
}

type InstalledPackage struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Version       string    `json:"version"`
	URL           string    `json:"url"`
	Archive       string    `json:"archive"`
	Path          string    `json:"path"`
	TotalSize     int64     `json:"total_size"`
	ExtractedSize int64     `json:"extracted_size"`
	InstalledAt   time.Time `json:"installed_at"`
}

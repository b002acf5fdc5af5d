package archive

import (
	"strconv"
	"strings"

	"github.com/teamcutter/unarc/internal/domain"
)

// Layout describes where a backend's verbose listing puts the fields we need.
// The flags token is always the first field and the path is always the last.
type Layout struct {
	// SizeField is the zero-based index of the uncompressed size.
	SizeField int

	// TrailerPrefix marks the first line of a summary footer. Empty means the
	// listing has no footer.
	TrailerPrefix string

	// LinkMarker is the first flags character of a symbolic link.
	LinkMarker byte

	// HeaderPrefixes mark banner lines that happen to have a numeric field
	// where the size would be.
	HeaderPrefixes []string
}

// GNU tar, `tar -tvf`:
//
//	-rw-r--r-- user/group     100 2024-01-01 12:00 a.txt
var tarLayout = Layout{
	SizeField:     2,
	TrailerPrefix: "---------",
	LinkMarker:    'l',
}

// Info-ZIP, `zipinfo`:
//
//	Archive:  pkg.zip
//	Zip file size: 512 bytes, number of entries: 1
//	-rw-r--r--  3.0 unx      100 tx stor 24-Jan-01 12:00 a.txt
var zipLayout = Layout{
	SizeField:      3,
	LinkMarker:     'l',
	HeaderPrefixes: []string{"Archive:", "Zip file size:"},
}

// ParseListing turns raw listing output into entries in listing order.
//
// Lines that cannot be parsed and symbolic links are dropped without error, so
// the sum of the returned sizes may undercount the archive.
func ParseListing(output string, layout Layout) []domain.Entry {
	var entries []domain.Entry

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if layout.TrailerPrefix != "" && strings.HasPrefix(line, layout.TrailerPrefix) {
			break
		}

		entry, ok := parseLine(line, layout)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

func parseLine(line string, layout Layout) (domain.Entry, bool) {
	for _, prefix := range layout.HeaderPrefixes {
		if strings.HasPrefix(line, prefix) {
			return domain.Entry{}, false
		}
	}

	fields := strings.Fields(line)
	if len(fields) <= layout.SizeField+1 {
		return domain.Entry{}, false
	}

	flags := fields[0]
	if layout.LinkMarker != 0 && flags[0] == layout.LinkMarker {
		return domain.Entry{}, false
	}

	size, err := strconv.ParseInt(fields[layout.SizeField], 10, 64)
	if err != nil || size < 0 {
		return domain.Entry{}, false
	}

	return domain.Entry{
		Path: fields[len(fields)-1],
		Size: size,
	}, true
}

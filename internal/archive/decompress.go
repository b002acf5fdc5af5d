package archive

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression is the outer compression of a tar stream.
type Compression string

const (
	None  Compression = "none"
	Gzip  Compression = "gzip"
	Zstd  Compression = "zstd"
	Xz    Compression = "xz"
	Bzip2 Compression = "bzip2"
)

var (
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicGzip  = []byte{0x1f, 0x8b}
	magicXz    = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
	magicBzip2 = []byte{0x42, 0x5a, 0x68}
)

// https://gist.github.com/leommoore/f9e57ba2aa4bf197ebc5
func detectCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, magicZstd):
		return Zstd
	case bytes.HasPrefix(header, magicGzip):
		return Gzip
	case bytes.HasPrefix(header, magicXz):
		return Xz
	case bytes.HasPrefix(header, magicBzip2):
		return Bzip2
	default:
		return None
	}
}

// source is what a tar process reads: either the archive path itself, or a
// decompressed stream handed over on stdin.
type source struct {
	path        string
	compression Compression
	stream      io.Reader
	closers     []func()
}

func openSource(path string) (*source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 6)
	n, _ := io.ReadFull(file, header)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}

	s := &source{
		path:        path,
		compression: detectCompression(header[:n]),
		closers:     []func(){func() { file.Close() }},
	}

	switch s.compression {
	case Zstd:
		zr, err := zstd.NewReader(file)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		s.stream = zr
		s.closers = append(s.closers, zr.Close)

	case Gzip:
		gzr, err := gzip.NewReader(file)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		s.stream = gzr
		s.closers = append(s.closers, func() { gzr.Close() })

	case Xz:
		xzr, err := xz.NewReader(file)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("xz: %w", err)
		}
		s.stream = xzr

	case Bzip2:
		s.stream = bzip2.NewReader(file)

	default:
		// plain tar, let the tool open it
		s.Close()
	}

	return s, nil
}

// Arg is the value for tar's -f flag.
func (s *source) Arg() string {
	if s.stream != nil {
		return "-"
	}
	return s.path
}

func (s *source) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// writeScript writes an executable shell script standing in for a backend
// binary and returns its path.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0755))
	return p
}

// writeFile creates a file of the given content inside a temp dir.
func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, content, 0644))
	return p
}

type tarMember struct {
	Name     string
	Content  []byte
	Linkname string
	Typeflag byte
}

func packTar(t *testing.T, members []tarMember) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{
			Name:     m.Name,
			Typeflag: m.Typeflag,
			Linkname: m.Linkname,
			Mode:     0644,
			Size:     int64(len(m.Content)),
			ModTime:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Uname:    "user",
			Gname:    "group",
		}
		if m.Typeflag == tar.TypeDir {
			hdr.Mode = 0755
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if len(m.Content) > 0 {
			_, err := tw.Write(m.Content)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func compress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	switch c {
	case Gzip:
		w := gzip.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case Zstd:
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case Xz:
		w, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		return data
	}
	return buf.Bytes()
}

func sampleMembers() []tarMember {
	return []tarMember{
		{Name: "a.txt", Content: bytes.Repeat([]byte("a"), 100), Typeflag: tar.TypeReg},
		{Name: "dir/", Typeflag: tar.TypeDir},
		{Name: "dir/b.txt", Content: bytes.Repeat([]byte("b"), 200), Typeflag: tar.TypeReg},
		{Name: "c", Linkname: "a.txt", Typeflag: tar.TypeSymlink},
	}
}

// requireGNUTar skips unless a GNU tar is on $PATH; the listing layout is
// GNU's.
func requireGNUTar(t *testing.T) {
	t.Helper()
	out, err := exec.Command("tar", "--version").Output()
	if err != nil || !strings.Contains(string(out), "GNU tar") {
		t.Skip("GNU tar not available")
	}
}

func requireBinary(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available", name)
		}
	}
}

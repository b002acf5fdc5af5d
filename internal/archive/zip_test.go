package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/unarc/internal/domain"
)

const zipinfoListing = `Archive:  pkg.zip
Zip file size: 512 bytes, number of entries: 4
drwxr-xr-x  3.0 unx        0 bx stor 24-Jan-01 12:00 dir/
-rw-r--r--  3.0 unx      100 tx stor 24-Jan-01 12:00 dir/a.txt
-rw-r--r--  3.0 unx      200 bx defN 24-Jan-01 12:00 b.txt
lrwxrwxrwx  3.0 unx        5 bx stor 24-Jan-01 12:00 c
4 files, 305 bytes uncompressed, 250 bytes compressed:  18.0%
`

func TestUnzipCompletedPath(t *testing.T) {
	tests := []struct {
		line string
		dst  string
		want string
		ok   bool
	}{
		{line: "  inflating: /tmp/out/dir/a.txt  ", dst: "/tmp/out", want: "dir/a.txt", ok: true},
		{line: " extracting: /tmp/out/b.txt", dst: "/tmp/out/", want: "b.txt", ok: true},
		{line: "   creating: /tmp/out/dir/", dst: "/tmp/out", want: "dir/", ok: true},
		{line: "    linking: /tmp/out/c  -> a.txt ", dst: "/tmp/out", want: "c", ok: true},
		{line: "  inflating: out/a.txt", dst: "out", want: "a.txt", ok: true},
		{line: "Archive:  pkg.zip", dst: "/tmp/out", ok: false},
		{line: "", dst: "/tmp/out", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := unzipCompletedPath(tt.line, tt.dst)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZipWithFakeBackend(t *testing.T) {
	archivePath := writeFile(t, "pkg.zip", []byte("zip"))
	dst := filepath.Join(t.TempDir(), "out")

	zipinfo := writeScript(t, "zipinfo", "cat <<'LISTING'\n"+zipinfoListing+"LISTING\n")
	unzip := writeScript(t, "unzip", `
echo "Archive:  $2"
echo "   creating: $4/dir/"
echo "  inflating: $4/dir/a.txt"
echo "    linking: $4/c  -> dir/a.txt"
echo "  inflating: $4/b.txt"
`)

	za := NewZip(archivePath, WithZipinfoPath(zipinfo), WithUnzipPath(unzip))
	entries, err := za.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Entry{
		{Path: "dir/", Size: 0},
		{Path: "dir/a.txt", Size: 100},
		{Path: "b.txt", Size: 200},
	}, entries)

	u, err := za.Extract(context.Background(), dst)
	require.NoError(t, err)
	defer u.Close()

	require.NoError(t, u.Wait(context.Background()))
	assert.Equal(t, domain.Progress{Done: 300, Total: 300}, u.Progress())
	assert.DirExists(t, dst)
}

func TestZipListingFailure(t *testing.T) {
	zipinfo := writeScript(t, "zipinfo", "echo 'cannot find zipfile directory' >&2\nexit 9\n")
	dst := filepath.Join(t.TempDir(), "out")
	za := NewZip(writeFile(t, "pkg.zip", nil), WithZipinfoPath(zipinfo))

	_, err := za.Entries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot find zipfile directory")

	_, err = za.Extract(context.Background(), dst)
	require.Error(t, err)
	assert.NoDirExists(t, dst)
}

func TestZipWithInfoZIP(t *testing.T) {
	requireBinary(t, "zipinfo", "unzip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, size := range map[string]int{"a.txt": 100, "dir/b.txt": 200} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(bytes.Repeat([]byte("x"), size))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	za := NewZip(writeFile(t, "pkg.zip", buf.Bytes()))
	entries, err := za.Entries(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Entry{
		{Path: "a.txt", Size: 100},
		{Path: "dir/b.txt", Size: 200},
	}, entries)

	dst := filepath.Join(t.TempDir(), "out")
	u, err := za.Extract(context.Background(), dst)
	require.NoError(t, err)
	defer u.Close()

	require.NoError(t, u.Wait(context.Background()))
	assert.Equal(t, domain.Progress{Done: 300, Total: 300}, u.Progress())

	info, err := os.Stat(filepath.Join(dst, "dir", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(200), info.Size())
}

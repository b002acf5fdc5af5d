package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/unarc/internal/domain"
)

func TestFetch(t *testing.T) {
	body := []byte("archive bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jq-1.7.tar.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(dir, 5*time.Second, WithProgressOutput(io.Discard))

	res := f.Fetch(context.Background(), domain.Package{
		Name:        "jq",
		Version:     "1.7",
		DownloadURL: srv.URL + "/jq-1.7.tar.gz",
	})
	require.NoError(t, res.Error)
	assert.Equal(t, filepath.Join(dir, "jq-1.7.tar.gz"), res.Path)
	assert.Equal(t, "jq", res.Package)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	res = f.Fetch(context.Background(), domain.Package{
		Name:        "jq",
		Version:     "1.7",
		DownloadURL: srv.URL + "/missing.zip",
	})
	assert.ErrorContains(t, res.Error, "unexpected status: 404")
	assert.Empty(t, res.Path)
}

func TestFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(t.TempDir(), time.Second, WithProgressOutput(io.Discard)).Fetch(ctx, domain.Package{
		Name:        "jq",
		Version:     "1.7",
		DownloadURL: srv.URL + "/jq.tar",
	})
	assert.ErrorIs(t, res.Error, context.Canceled)
}

func TestExtFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://example.com/jq-1.7.tar.gz", want: ".tar.gz"},
		{url: "https://example.com/jq-1.7.TAR.XZ?sig=abc", want: ".tar.xz"},
		{url: "https://example.com/tool.zip#frag", want: ".zip"},
		{url: "https://example.com/tool.tgz", want: ".tgz"},
		{url: "https://example.com/tool.deb", want: ".deb"},
		{url: "https://example.com/download", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extFromURL(tt.url), tt.url)
	}
}

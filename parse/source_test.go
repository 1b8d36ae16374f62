package parse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/combine/downloader"
	"tidbyt.dev/combine/report"
	"tidbyt.dev/combine/testutil"
)

func TestDiscoverDirectories(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDir(t, dir, "metro", fixtureSimple())
	testutil.WriteDir(t, dir, "bus", fixtureSimple())
	testutil.WriteDir(t, dir, ".git", map[string][]string{"HEAD": {"ref"}})
	// archives are ignored when there are feed directories
	testutil.WriteZip(t, dir, "ferry", fixtureSimple())

	sources, err := Discover(dir, report.Nop)
	require.NoError(t, err)
	require.Equal(t, 2, len(sources))
	assert.Equal(t, "bus", sources[0].Name())
	assert.Equal(t, "metro", sources[1].Name())

	feed, err := sources[1].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "metro", feed.Name)
	assert.Equal(t, 1, len(feed.Trips))
}

func TestDiscoverArchives(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteZip(t, dir, "tram", fixtureSimple())
	testutil.WriteZip(t, dir, "bus", fixtureSimple())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0644))

	sources, err := Discover(dir, report.Nop)
	require.NoError(t, err)
	require.Equal(t, 2, len(sources))
	assert.Equal(t, "bus", sources[0].Name())
	assert.Equal(t, "tram", sources[1].Name())

	zs, ok := sources[1].(*ZipSource)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "tram.zip"), zs.Path)

	feed, err := sources[1].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tram", feed.Name)
	assert.Equal(t, "r", feed.Routes[0].ID)
}

func TestDiscoverEmpty(t *testing.T) {
	rec := &report.Recorder{}
	sources, err := Discover(t.TempDir(), rec)
	require.NoError(t, err)
	assert.Equal(t, 0, len(sources))
	assert.Equal(t, 1, len(rec.Entries))

	_, err = Discover(filepath.Join(t.TempDir(), "missing"), rec)
	assert.Error(t, err)
}

func TestZipSourceBrokenArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	src := &ZipSource{FeedName: "bad", Path: path}
	_, err := src.Load(context.Background())
	assert.Error(t, err)
}

func TestRemoteSource(t *testing.T) {
	buf := testutil.BuildZip(t, fixtureSimple())
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Api-Key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write(buf)
	}))
	defer server.Close()

	src := &RemoteSource{
		FeedName:   "remote",
		URL:        server.URL,
		Headers:    map[string]string{"Api-Key": "secret"},
		Downloader: downloader.NewMemoryDownloader(),
		Reporter:   report.Nop,
	}
	feed, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "remote", feed.Name)
	assert.Equal(t, 1, len(feed.StopTimes))
	assert.Equal(t, 1, requests)

	src.Headers = nil
	_, err = src.Load(context.Background())
	require.Error(t, err)
	var statusErr *downloader.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

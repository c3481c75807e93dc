package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImages(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("img-"+n), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func fakeProxy(t *testing.T, body string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if _, _, err := r.FormFile("image"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"No image uploaded"}`)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_WritesCSV(t *testing.T) {
	var calls atomic.Int32
	srv := fakeProxy(t, `{"plate":[{"plate":"abc123"},{"plate":"xyz"}]}`, &calls)
	out := filepath.Join(t.TempDir(), "plates.csv")

	paths := writeImages(t, "a.jpg", "b.jpg")
	paths = append(paths, filepath.Join(t.TempDir(), "missing.jpg"))

	code := run(context.Background(), flagParameter{
		endpoint:   srv.URL,
		out:        out,
		interval:   time.Millisecond,
		noCompress: true,
	}, paths)

	assert.Equal(t, 0, code)
	assert.Equal(t, int32(2), calls.Load(), "missing file is reported, not uploaded")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "License Plate\nABC-123\nXYZ\nABC-123\nXYZ\n", string(b))
}

func TestRun_NothingToExport(t *testing.T) {
	var calls atomic.Int32
	srv := fakeProxy(t, `{"plate":[]}`, &calls)
	out := filepath.Join(t.TempDir(), "plates.csv")

	code := run(context.Background(), flagParameter{
		endpoint:   srv.URL,
		out:        out,
		interval:   time.Millisecond,
		noCompress: true,
	}, writeImages(t, "empty.jpg"))

	assert.Equal(t, 0, code)
	assert.Equal(t, int32(1), calls.Load())
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_CancelledKeepsPartialList(t *testing.T) {
	var calls atomic.Int32
	srv := fakeProxy(t, `{"plate":[{"plate":"ab12"}]}`, &calls)
	out := filepath.Join(t.TempDir(), "plates.csv")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	code := run(ctx, flagParameter{
		endpoint:   srv.URL,
		out:        out,
		interval:   time.Hour,
		noCompress: true,
	}, writeImages(t, "first.jpg", "second.jpg"))

	assert.Equal(t, 1, code)
	assert.Equal(t, int32(1), calls.Load())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "License Plate\nAB-12\n", string(b))
}

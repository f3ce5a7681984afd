package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)
	return l
}

func TestLocalPutRemoveRoundtrip(t *testing.T) {
	l := newTestLocal(t)

	url, err := l.Put(context.Background(), "listings/a.jpg", "image/jpeg", strings.NewReader("jpegdata"), 8)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/listings/a.jpg", url)

	data, err := os.ReadFile(filepath.Join(l.root, "listings", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))

	require.NoError(t, l.Remove(context.Background(), "listings/a.jpg"))
	_, err = os.Stat(filepath.Join(l.root, "listings", "a.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalRemoveMissingFileIsNotAnError(t *testing.T) {
	l := newTestLocal(t)
	assert.NoError(t, l.Remove(context.Background(), "listings/never-written.jpg"))
}

func TestLocalRefusesPathOutsideRoot(t *testing.T) {
	l := newTestLocal(t)

	for _, key := range []string{"../escape.jpg", "..", "", "/"} {
		_, err := l.Put(context.Background(), key, "", strings.NewReader("x"), 1)
		assert.Error(t, err, "key %q must be refused", key)
	}
	assert.Error(t, l.Remove(context.Background(), "../../etc/passwd"))
}

func TestLocalKeyFromURL(t *testing.T) {
	l := newTestLocal(t)

	key, ok := l.KeyFromURL("http://localhost:8080/uploads/listings/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "listings/a.jpg", key)

	// URLs embed the request host; a differing host still maps by path
	key, ok = l.KeyFromURL("https://listygo.example/uploads/listings/b.png")
	assert.True(t, ok)
	assert.Equal(t, "listings/b.png", key)

	_, ok = l.KeyFromURL("https://elsewhere.example/other/c.png")
	assert.False(t, ok)
	_, ok = l.KeyFromURL("")
	assert.False(t, ok)
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

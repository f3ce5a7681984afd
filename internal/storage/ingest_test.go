package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFile struct {
	name string
	data []byte
}

func fileHeaders(t *testing.T, files []testFile) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		part, err := w.CreateFormFile("images", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["images"]
}

func TestIngestAcceptsValidFilesInOrder(t *testing.T) {
	l := newTestLocal(t)
	ing := Ingestor{Backend: l, Prefix: "listings", MaxFiles: 5, MaxBytes: 5 << 20}

	urls, err := ing.Ingest(context.Background(), fileHeaders(t, []testFile{
		{"front.jpg", []byte("aaa")},
		{"back.png", []byte("bbb")},
	}))
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.True(t, strings.HasSuffix(urls[0], ".jpg"))
	assert.True(t, strings.HasSuffix(urls[1], ".png"))
	assert.Equal(t, 2, countFiles(t, l.root))
}

func TestIngestRejectsUnsupportedExtension(t *testing.T) {
	l := newTestLocal(t)
	ing := Ingestor{Backend: l, Prefix: "listings", MaxFiles: 5, MaxBytes: 5 << 20}

	_, err := ing.Ingest(context.Background(), fileHeaders(t, []testFile{
		{"notes.txt", []byte("hello")},
	}))
	assert.Error(t, err)
	assert.Equal(t, 0, countFiles(t, l.root))
}

func TestIngestOversizedFileFailsWholeCall(t *testing.T) {
	l := newTestLocal(t)
	ing := Ingestor{Backend: l, Prefix: "listings", MaxFiles: 5, MaxBytes: 4}

	_, err := ing.Ingest(context.Background(), fileHeaders(t, []testFile{
		{"ok1.jpg", []byte("abc")},
		{"huge.jpg", []byte("way too large")},
		{"ok2.jpg", []byte("def")},
	}))
	assert.Error(t, err)
	// nothing from the failing call survives in storage
	assert.Equal(t, 0, countFiles(t, l.root))
}

func TestIngestEnforcesFileCap(t *testing.T) {
	l := newTestLocal(t)
	ing := Ingestor{Backend: l, Prefix: "listings", MaxFiles: 1, MaxBytes: 5 << 20}

	_, err := ing.Ingest(context.Background(), fileHeaders(t, []testFile{
		{"a.jpg", []byte("a")},
		{"b.jpg", []byte("b")},
	}))
	assert.Error(t, err)
	assert.Equal(t, 0, countFiles(t, l.root))
}

func TestIngestNoFilesIsANoop(t *testing.T) {
	ing := Ingestor{Backend: newTestLocal(t), Prefix: "listings"}
	urls, err := ing.Ingest(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, urls)
}

// failAfter wraps a backend and fails every Put past the first n.
type failAfter struct {
	Backend
	n    int
	seen int
}

func (f *failAfter) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	f.seen++
	if f.seen > f.n {
		return "", errors.New("backend write failure")
	}
	return f.Backend.Put(ctx, key, contentType, r, size)
}

func TestIngestRollsBackWrittenFilesOnWriteFailure(t *testing.T) {
	l := newTestLocal(t)
	ing := Ingestor{Backend: &failAfter{Backend: l, n: 1}, Prefix: "listings", MaxFiles: 5, MaxBytes: 5 << 20}

	_, err := ing.Ingest(context.Background(), fileHeaders(t, []testFile{
		{"a.jpg", []byte("a")},
		{"b.jpg", []byte("b")},
	}))
	assert.Error(t, err)
	assert.Equal(t, 0, countFiles(t, l.root))
}

func TestCompensateUploadsDeletesIngestedFiles(t *testing.T) {
	l := newTestLocal(t)
	ing := Ingestor{Backend: l, Prefix: "listings", MaxFiles: 5, MaxBytes: 5 << 20}

	urls, err := ing.Ingest(context.Background(), fileHeaders(t, []testFile{
		{"a.jpg", []byte("a")},
		{"b.jpg", []byte("b")},
	}))
	require.NoError(t, err)
	require.Equal(t, 2, countFiles(t, l.root))

	CompensateUploads(context.Background(), l, urls)
	assert.Equal(t, 0, countFiles(t, l.root))
}

func TestCleanupSkipsForeignURLsAndToleratesMissing(t *testing.T) {
	l := newTestLocal(t)

	url, err := l.Put(context.Background(), "listings/x.jpg", "", strings.NewReader("x"), 1)
	require.NoError(t, err)

	Cleanup(context.Background(), l, []string{
		url,
		"https://elsewhere.example/not/ours.jpg",
		"http://localhost:8080/uploads/listings/already-gone.jpg",
	})
	assert.Equal(t, 0, countFiles(t, l.root))
}

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local stores uploads under a public directory served by the HTTP layer.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates the upload root if needed. baseURL is the public prefix
// the files resolve under, e.g. "http://localhost:8080/uploads".
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root %s: %w", root, err)
	}
	return &Local{
		root:    filepath.Clean(root),
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
	}, nil
}

func (l *Local) Put(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	full, err := l.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		os.Remove(full)
		return "", err
	}

	return l.baseURL + "/" + path.Clean(strings.TrimPrefix(key, "/")), nil
}

func (l *Local) Remove(_ context.Context, key string) error {
	full, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// KeyFromURL accepts URLs produced by this backend. Because public URLs embed
// the request host, it falls back to matching the base URL's path component
// when the host differs.
func (l *Local) KeyFromURL(rawURL string) (string, bool) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", false
	}
	if strings.HasPrefix(trimmed, l.baseURL+"/") {
		key := stripQuery(strings.TrimPrefix(trimmed, l.baseURL+"/"))
		return key, key != ""
	}

	base, err := url.Parse(l.baseURL)
	if err != nil || base.Path == "" {
		return "", false
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	prefix := strings.TrimSuffix(base.Path, "/") + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, prefix)
	return key, key != ""
}

// resolve joins key under the root and refuses anything that would escape it.
func (l *Local) resolve(key string) (string, error) {
	for _, part := range strings.Split(filepath.ToSlash(key), "/") {
		if part == ".." {
			return "", fmt.Errorf("refusing path outside upload root: %s", key)
		}
	}

	cleanRel := path.Clean("/" + strings.TrimPrefix(strings.TrimSpace(key), "/"))
	cleanRel = strings.TrimPrefix(cleanRel, "/")
	if cleanRel == "" || cleanRel == "." || strings.HasPrefix(cleanRel, "..") {
		return "", fmt.Errorf("refusing path outside upload root: %s", key)
	}

	target := filepath.Clean(filepath.Join(l.root, filepath.FromSlash(cleanRel)))
	if target != l.root && !strings.HasPrefix(target, l.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("refusing path outside upload root: %s", key)
	}
	return target, nil
}

func stripQuery(key string) string {
	if i := strings.IndexByte(key, '?'); i >= 0 {
		return key[:i]
	}
	return key
}

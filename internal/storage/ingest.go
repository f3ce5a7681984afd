package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowedExtensions is the fixed raster-image allow-list for uploads.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Ingestor validates and persists uploaded image files, producing one public
// URL per accepted file. Ingest is atomic from the caller's point of view: if
// any file fails, objects already written during the call are deleted before
// the error is surfaced.
type Ingestor struct {
	Backend  Backend
	Prefix   string // object key prefix, e.g. "listings"
	MaxFiles int
	MaxBytes int64
}

// Ingest persists files in order and returns their URLs in the same order.
func (ing Ingestor) Ingest(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if ing.MaxFiles > 0 && len(files) > ing.MaxFiles {
		return nil, fmt.Errorf("too many files: %d (max %d)", len(files), ing.MaxFiles)
	}

	// validate the whole batch before the first write
	for _, fh := range files {
		if err := ing.validate(fh); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(files))
	keys := make([]string, 0, len(files))
	for _, fh := range files {
		url, key, err := ing.save(ctx, fh)
		if err != nil {
			ing.rollback(ctx, keys)
			return nil, err
		}
		urls = append(urls, url)
		keys = append(keys, key)
	}
	return urls, nil
}

func (ing Ingestor) validate(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		return fmt.Errorf("image file extension is required: %s", fh.Filename)
	}
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("unsupported image type: %s", ext)
	}
	if ing.MaxBytes > 0 && fh.Size > ing.MaxBytes {
		return fmt.Errorf("image file too large: %s (max %d bytes)", fh.Filename, ing.MaxBytes)
	}
	return nil
}

func (ing Ingestor) save(ctx context.Context, fh *multipart.FileHeader) (string, string, error) {
	in, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer in.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	key := path.Join(ing.Prefix, uuid.New().String()+ext)

	url, err := ing.Backend.Put(ctx, key, fh.Header.Get("Content-Type"), in, fh.Size)
	if err != nil {
		return "", "", fmt.Errorf("store upload %s: %w", fh.Filename, err)
	}
	return url, key, nil
}

func (ing Ingestor) rollback(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := ing.Backend.Remove(ctx, key); err != nil {
			zap.S().Warnw("ingest rollback: object delete failed", "key", key, "error", err)
		}
	}
}

// CompensateUploads deletes files ingested by this request after a later step
// failed, so no orphaned uploads survive a failed request.
func CompensateUploads(ctx context.Context, b Backend, urls []string) {
	for _, raw := range urls {
		key, ok := b.KeyFromURL(raw)
		if !ok {
			continue
		}
		if err := b.Remove(ctx, key); err != nil {
			zap.S().Warnw("upload compensation: object delete failed", "key", key, "error", err)
		}
	}
}

// Cleanup best-effort deletes the backing objects of removed image URLs. It
// runs strictly after the listing record has been durably updated. Foreign
// URLs (not produced by this backend) are skipped; individual failures are
// logged and never abort the remaining deletions or the request.
func Cleanup(ctx context.Context, b Backend, urls []string) {
	for _, raw := range urls {
		key, ok := b.KeyFromURL(raw)
		if !ok {
			zap.S().Debugw("cleanup: skipping foreign image url", "url", raw)
			continue
		}
		if err := b.Remove(ctx, key); err != nil {
			zap.S().Warnw("cleanup: image delete failed", "key", key, "error", err)
			continue
		}
		zap.S().Infow("cleanup: image deleted", "key", key)
	}
}

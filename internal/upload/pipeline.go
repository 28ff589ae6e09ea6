// Package upload turns an optional multipart file into a stored asset URL.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"

	"bookstore/internal/platform/metrics"
)

// DefaultMaxBytes is the cover image size cap.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// ErrPayloadTooLarge is returned for files over the size cap. It is always
// returned before anything is written to the asset store.
var ErrPayloadTooLarge = errors.New("file exceeds the upload size limit")

// AssetStore persists bytes and returns a publicly fetchable URL.
type AssetStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// Pipeline validates an uploaded file and hands it to the asset store.
type Pipeline struct {
	store    AssetStore
	maxBytes int64
}

func NewPipeline(store AssetStore, maxBytes int64) *Pipeline {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Pipeline{store: store, maxBytes: maxBytes}
}

// MaxBytes reports the size cap.
func (p *Pipeline) MaxBytes() int64 {
	return p.maxBytes
}

// Handle uploads file and returns its URL. A nil file yields "" and no error.
// Store errors are returned unchanged and never retried.
func (p *Pipeline) Handle(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", nil
	}
	if file.Size > p.maxBytes {
		metrics.AssetUploadsTotal.WithLabelValues(metrics.ResultTooLarge).Inc()
		return "", ErrPayloadTooLarge
	}

	data, err := p.read(file)
	if err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			metrics.AssetUploadsTotal.WithLabelValues(metrics.ResultTooLarge).Inc()
		}
		return "", err
	}

	url, err := p.store.Store(ctx, data, contentType(file, data))
	if err != nil {
		metrics.AssetUploadsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return "", err
	}

	metrics.AssetUploadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.AssetUploadBytes.Observe(float64(len(data)))
	return url, nil
}

func (p *Pipeline) read(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer f.Close()

	// One byte past the cap is enough to tell an oversized file apart.
	data, err := io.ReadAll(io.LimitReader(f, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, ErrPayloadTooLarge
	}
	return data, nil
}

// contentType prefers the declared part type and sniffs when it is missing.
func contentType(file *multipart.FileHeader, data []byte) string {
	declared := file.Header.Get("Content-Type")
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// Package source fetches and validates the lead's source photo before it
// is handed to the image generation model.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// DefaultMaxBytes bounds the download size of a source photo (10 MiB).
const DefaultMaxBytes = 10 << 20

// Image is a validated source photo.
type Image struct {
	Data     []byte
	MIMEType string
	// Orientation is the EXIF orientation tag (1..8), 1 when absent.
	// Phone cameras routinely store portrait shots rotated, so the
	// prompt passes this along to keep faces upright.
	Orientation int
}

// Fetcher downloads source photos over HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a fetcher with a bounded download size.
func NewFetcher(maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: maxBytes,
	}
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Fetch downloads and validates the photo at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Image{}, fmt.Errorf("photo url %q is not a valid http(s) url", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Image{}, fmt.Errorf("build photo request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("fetch photo: unexpected status %d", resp.StatusCode)
	}

	mimeType := contentType(resp.Header.Get("Content-Type"))
	if !allowedTypes[mimeType] {
		return Image{}, fmt.Errorf("photo content type %q is not supported", mimeType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read photo body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return Image{}, fmt.Errorf("photo exceeds %d byte limit", f.maxBytes)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("photo body is empty")
	}

	return Image{
		Data:        data,
		MIMEType:    mimeType,
		Orientation: orientation(mimeType, data),
	}, nil
}

func contentType(header string) string {
	if i := strings.IndexByte(header, ';'); i >= 0 {
		header = header[:i]
	}
	return strings.ToLower(strings.TrimSpace(header))
}

// orientation reads the EXIF orientation tag. Missing or unreadable
// metadata falls back to 1 (upright), never to an error.
func orientation(mimeType string, data []byte) int {
	if mimeType != "image/jpeg" {
		return 1
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

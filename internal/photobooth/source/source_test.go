package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAcceptsJPEG(t *testing.T) {
	srv := serve(t, "image/jpeg; charset=binary", []byte("jpeg-bytes"))
	f := NewFetcher(DefaultMaxBytes)

	img, err := f.Fetch(context.Background(), srv.URL+"/foto.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", img.MIMEType)
	}
	if string(img.Data) != "jpeg-bytes" {
		t.Fatalf("body not read: %q", img.Data)
	}
	if img.Orientation != 1 {
		t.Fatalf("non-EXIF jpeg must default to orientation 1, got %d", img.Orientation)
	}
}

func TestFetchRejectsNonImageContentType(t *testing.T) {
	srv := serve(t, "text/html", []byte("<html>"))
	f := NewFetcher(DefaultMaxBytes)

	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("text/html must be rejected")
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := serve(t, "image/png", []byte(strings.Repeat("x", 64)))
	f := NewFetcher(32)

	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("oversized body must be rejected")
	}
}

func TestFetchRejectsEmptyBody(t *testing.T) {
	srv := serve(t, "image/png", nil)
	f := NewFetcher(DefaultMaxBytes)

	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("empty body must be rejected")
	}
}

func TestFetchRejectsBadURLs(t *testing.T) {
	f := NewFetcher(DefaultMaxBytes)
	for _, raw := range []string{
		"",
		"ftp://example.com/foto.jpg",
		"file:///etc/passwd",
		"not a url",
	} {
		if _, err := f.Fetch(context.Background(), raw); err == nil {
			t.Fatalf("url %q must be rejected", raw)
		}
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	f := NewFetcher(DefaultMaxBytes)

	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("404 response must be rejected")
	}
}

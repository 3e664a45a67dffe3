// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imagehost

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegiv/studiosite/internal/imaging"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestUploader(t *testing.T) (*Uploader, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUploader(backend, imaging.NewProcessor(64), logger), dir
}

func TestUploader_Upload(t *testing.T) {
	u, dir := newTestUploader(t)

	url, err := u.Upload(context.Background(), "logo.png", testPNG(t, 128, 32), "image/png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/images/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q", url)
	}

	path := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/")))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored file is not a png: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 16 {
		t.Errorf("stored size = %dx%d, want 64x16", cfg.Width, cfg.Height)
	}
}

func TestUploader_Rejects(t *testing.T) {
	u, _ := newTestUploader(t)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmpty},
		{"text disguised as png", []byte("definitely not an image"), ErrUnsupportedType},
		{"svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), ErrUnsupportedType},
		{"too large", make([]byte, MaxUploadSize+1), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := u.Upload(context.Background(), "x.png", tt.data, "image/png"); !errors.Is(err, tt.want) {
				t.Errorf("Upload() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUploader_FileNames(t *testing.T) {
	u, _ := newTestUploader(t)
	data := testPNG(t, 4, 4)

	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{"plain", "logo.png", nil},
		{"upper-case extension", "LOGO.PNG", nil},
		{"mismatched image extension", "logo.jpg", nil},
		{"no extension", "logo", nil},
		{"path components", "../../etc/logo.png", nil},
		{"empty", "", nil},
		{"executable extension", "logo.exe", ErrUnsupportedType},
		{"text extension", "../notes.txt", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := u.Upload(context.Background(), tt.filename, data, "image/png")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Upload(%q) error = %v, want %v", tt.filename, err, tt.wantErr)
			}
			if err == nil && (!strings.HasPrefix(url, "/uploads/images/") || strings.Contains(url, "..")) {
				t.Errorf("Upload(%q) url = %q", tt.filename, url)
			}
		})
	}
}

type failingBackend struct{}

func (failingBackend) Put(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestUploader_BackendFailure(t *testing.T) {
	u := NewUploader(failingBackend{}, imaging.NewProcessor(0), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := u.Upload(context.Background(), "a.png", testPNG(t, 4, 4), "image/png"); err == nil {
		t.Fatal("Upload() succeeded with a failing backend")
	}
}

func TestLocalBackend_RejectsTraversal(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Put(context.Background(), "../escape.png", []byte("x"), "image/png"); err == nil {
		t.Error("Put() accepted a key outside the upload directory")
	}
}

func TestS3Backend_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{
			name: "http endpoint",
			cfg:  S3Config{Endpoint: "localhost:9000", Bucket: "studio"},
			want: "http://localhost:9000/studio/images/a.png",
		},
		{
			name: "https endpoint",
			cfg:  S3Config{Endpoint: "s3.example.com", Bucket: "assets", UseSSL: true},
			want: "https://s3.example.com/assets/images/a.png",
		},
		{
			name: "public base url",
			cfg:  S3Config{Endpoint: "s3.example.com", Bucket: "assets", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/images/a.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.AccessKey, tt.cfg.SecretKey = "key", "secret"
			b, err := NewS3Backend(tt.cfg)
			if err != nil {
				t.Fatalf("NewS3Backend: %v", err)
			}
			if got := b.PublicURL("images/a.png"); got != tt.want {
				t.Errorf("PublicURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

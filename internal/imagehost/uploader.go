// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imagehost stores admin-uploaded images and hands back public URLs.
package imagehost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/olegiv/studiosite/internal/imaging"
	"github.com/olegiv/studiosite/internal/util"
)

// MaxUploadSize bounds a single image upload.
const MaxUploadSize = 10 << 20

// Upload errors.
var (
	ErrUnsupportedType = errors.New("only jpeg, png, gif and webp images are accepted")
	ErrTooLarge        = errors.New("image exceeds the upload size limit")
	ErrEmpty           = errors.New("image is empty")
)

// Uploader normalizes uploaded images and stores them through a Backend.
type Uploader struct {
	backend   Backend
	processor *imaging.Processor
	logger    *slog.Logger
	newID     func() (uuid.UUID, error)
}

// NewUploader creates an uploader over backend.
func NewUploader(backend Backend, processor *imaging.Processor, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		backend:   backend,
		processor: processor,
		logger:    logger,
		newID:     uuid.NewV7,
	}
}

// Upload stores the image and returns its public URL. The declared content
// type is only a hint and the data itself must sniff as an image. A file
// name extension, when present, must name an accepted format.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}

	// The client's name is never used as a storage key; it is only logged.
	name, err := util.SanitizeFilename(filename)
	if err != nil {
		name = ""
	}
	hinted := imaging.FormatFromFilename(name)
	if hinted == "" && filepath.Ext(name) != "" {
		u.logger.Warn("rejected image upload", "filename", name, "reason", "extension")
		return "", ErrUnsupportedType
	}

	detected := imaging.DetectMimeType(data)
	if !imaging.IsImage(detected) {
		u.logger.Warn("rejected image upload", "filename", name, "declared", contentType, "detected", detected)
		return "", ErrUnsupportedType
	}
	if hinted != "" && imaging.FormatToMimeType(hinted) != detected {
		u.logger.Info("image extension does not match content", "filename", name, "detected", detected)
	}

	res, err := u.processor.Normalize(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return "", ErrUnsupportedType
		}
		return "", fmt.Errorf("normalizing image: %w", err)
	}

	id, err := u.newID()
	if err != nil {
		return "", fmt.Errorf("generating image id: %w", err)
	}
	key := "images/" + id.String() + res.Extension

	url, err := u.backend.Put(ctx, key, res.Data, res.MimeType)
	if err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}

	u.logger.Info("image uploaded", "filename", name, "key", key,
		"width", res.Width, "height", res.Height, "size", len(res.Data))
	return url, nil
}

// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package images stores recipe and menu-plan photos in Cloud Storage.
package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// Writer uploads image data URLs to a public bucket. A nil Writer, or
// one without a bucket, leaves images inline as data URLs.
type Writer struct {
	storage *storage.Client
	bucket  string
}

// NewWriter returns a Writer publishing to bucket.
func NewWriter(client *storage.Client, bucket string) *Writer {
	return &Writer{storage: client, bucket: bucket}
}

// Enabled reports whether uploads are configured.
func (w *Writer) Enabled() bool {
	return w != nil && w.storage != nil && w.bucket != ""
}

// Save uploads the image in dataURL under pathNoExt and returns the
// public URL. Strings that are not data URLs, such as an already
// hosted image, pass through unchanged, as does everything when
// uploads are not configured.
func (w *Writer) Save(ctx context.Context, pathNoExt string, dataURL string) (string, error) {
	if !w.Enabled() || !strings.HasPrefix(dataURL, "data:") {
		return dataURL, nil
	}

	ct, ext, contents, err := parseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	path := pathNoExt + "." + ext

	wr := w.storage.Bucket(w.bucket).Object(path).NewWriter(ctx)
	defer func() {
		_ = wr.Close()
	}()
	wr.ContentType = ct
	if _, err := wr.Write(contents); err != nil {
		return "", fmt.Errorf("images: writing image: %w", err)
	}
	if err := wr.Close(); err != nil {
		return "", fmt.Errorf("images: closing writer: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", w.bucket, path), nil
}

func parseDataURL(dataURL string) (contentType string, ext string, data []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", "", nil, fmt.Errorf("images: invalid data URL %q", dataURL) //nolint:err113
	}
	ct, contents, ok := strings.Cut(rest, ";")
	if !ok {
		return "", "", nil, fmt.Errorf("images: invalid data URL %q", dataURL) //nolint:err113
	}

	ext, ok = strings.CutPrefix(ct, "image/")
	if !ok {
		return "", "", nil, fmt.Errorf("images: only image data URLs supported, got %q", ct) //nolint:err113
	}

	b64, ok := strings.CutPrefix(contents, "base64,")
	if !ok {
		return "", "", nil, fmt.Errorf("images: only base64 data URLs supported, got %q", dataURL) //nolint:err113
	}
	data, err = base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", "", nil, fmt.Errorf("images: decoding base64 data URL: %w", err)
	}
	return ct, ext, data, nil
}

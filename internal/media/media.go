// Package media stores recipe images submitted as base64 payloads.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// maxWidth bounds stored images; taller-than-wide originals keep their
// aspect ratio.
const maxWidth = 800

// Store writes decoded images under a directory served statically.
type Store struct {
	dir string
}

// NewStore creates a new Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// SaveBase64 decodes a base64 image (with or without a data-URI prefix),
// resizes it to the bounded width and writes it under a fresh uuid name.
// It returns the path relative to the media root.
func (s *Store) SaveBase64(data string) (string, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	}

	var extension string
	switch format {
	case "jpeg":
		extension = ".jpg"
	case "png":
		extension = ".png"
	default:
		return "", fmt.Errorf("unsupported image format: %s", format)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	name := uuid.New().String() + extension
	imagePath := filepath.Join(s.dir, name)
	out, err := os.Create(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	switch extension {
	case ".jpg":
		err = jpeg.Encode(out, img, nil)
	case ".png":
		err = png.Encode(out, img)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	return name, nil
}

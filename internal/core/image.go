// Core image data structure with thread-safe operations
package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"image-filter-sandbox/internal/buffer"
)

var ErrNoImage = errors.New("no image loaded")

// Check for reasonable size limits (prevent memory issues)
const maxDimension = 16384

// ImageData holds the original image and the buffers derived from it.
// The original is never modified; processed and blended are replaced on
// every recompute.
type ImageData struct {
	mu        sync.RWMutex
	original  *buffer.Buffer
	processed *buffer.Buffer
	blended   *buffer.Buffer
	hasImage  bool
	metadata  ImageMetadata
}

// ImageMetadata contains image information
type ImageMetadata struct {
	Width  int
	Height int
	Format string
	Source string
}

func NewImageData() *ImageData {
	return &ImageData{}
}

// SetOriginal installs a new source image and resets the derived buffers
// to it.
func (img *ImageData) SetOriginal(buf *buffer.Buffer, source string) error {
	if err := ValidateImage(buf); err != nil {
		return err
	}

	img.mu.Lock()
	defer img.mu.Unlock()

	img.original = buf.Clone()
	img.processed = img.original
	img.blended = img.original
	img.hasImage = true
	img.metadata = ImageMetadata{
		Width:  buf.Width,
		Height: buf.Height,
		Format: getFormatFromSource(source),
		Source: source,
	}
	return nil
}

// SetProcessed stores the pipeline output.
func (img *ImageData) SetProcessed(buf *buffer.Buffer) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	if !img.hasImage {
		return ErrNoImage
	}
	if !buf.SameSize(img.original) {
		return fmt.Errorf("processed image is %dx%d, original is %dx%d",
			buf.Width, buf.Height, img.original.Width, img.original.Height)
	}
	img.processed = buf
	return nil
}

// SetBlended stores the opacity-blended result.
func (img *ImageData) SetBlended(buf *buffer.Buffer) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	if !img.hasImage {
		return ErrNoImage
	}
	img.blended = buf
	return nil
}

// Original returns the source buffer. Callers must not modify it.
func (img *ImageData) Original() *buffer.Buffer {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.original
}

func (img *ImageData) Processed() *buffer.Buffer {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.processed
}

func (img *ImageData) Blended() *buffer.Buffer {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.blended
}

func (img *ImageData) HasImage() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.hasImage
}

func (img *ImageData) Metadata() ImageMetadata {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.metadata
}

// ResetToOriginal discards processed and blended results
func (img *ImageData) ResetToOriginal() error {
	img.mu.Lock()
	defer img.mu.Unlock()

	if !img.hasImage {
		return ErrNoImage
	}
	img.processed = img.original
	img.blended = img.original
	return nil
}

// Clear clears all image data
func (img *ImageData) Clear() {
	img.mu.Lock()
	defer img.mu.Unlock()

	img.original = nil
	img.processed = nil
	img.blended = nil
	img.hasImage = false
	img.metadata = ImageMetadata{}
}

// getFormatFromSource extracts image format from a path or data URL
func getFormatFromSource(source string) string {
	if rest, ok := strings.CutPrefix(source, "data:image/"); ok {
		if end := strings.IndexAny(rest, ";,"); end > 0 {
			return rest[:end]
		}
	}
	if ext := filepath.Ext(source); ext != "" {
		return strings.ToLower(ext[1:])
	}
	return "unknown"
}

// ValidateImage checks a buffer for basic requirements
func ValidateImage(buf *buffer.Buffer) error {
	if buf.Empty() {
		return fmt.Errorf("image is empty")
	}
	if len(buf.Pix) != 4*buf.Width*buf.Height {
		return fmt.Errorf("pixel data has %d bytes, want %d", len(buf.Pix), 4*buf.Width*buf.Height)
	}
	if buf.Width > maxDimension || buf.Height > maxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", buf.Width, buf.Height, maxDimension)
	}
	return nil
}

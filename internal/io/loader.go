// Image loading, decoding and PNG export backed by OpenCV
package io

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"image-filter-sandbox/internal/buffer"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyImage        = errors.New("cannot save empty image")
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage reads an image file into a buffer with opaque alpha.
func (il *ImageLoader) LoadImage(path string) (*buffer.Buffer, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if !IsSupportedImageFormat(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}

	buf, err := matToBuffer(mat)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    buf.Width,
		"height":   buf.Height,
	}).Info("Image loaded successfully")
	return buf, nil
}

// Open loads source, which is either a file path or a data URL.
func (il *ImageLoader) Open(source string) (*buffer.Buffer, error) {
	if IsDataURL(source) {
		return il.DecodeDataURL(source)
	}
	return il.LoadImage(source)
}

// ReadImage decodes an encoded image from r, for sources that are streams
// rather than local files.
func (il *ImageLoader) ReadImage(r io.Reader) (*buffer.Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return il.DecodeBytes(data)
}

// DecodeBytes decodes an encoded image held in memory.
func (il *ImageLoader) DecodeBytes(data []byte) (*buffer.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no image data")
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to decode image: invalid or corrupted data")
	}

	return matToBuffer(mat)
}

// DecodeDataURL decodes a data:image/...;base64 URL.
func (il *ImageLoader) DecodeDataURL(url string) (*buffer.Buffer, error) {
	mediaType, data, err := ParseDataURL(url)
	if err != nil {
		return nil, err
	}
	il.logger.WithFields(logrus.Fields{"media_type": mediaType, "bytes": len(data)}).Debug("Decoding data URL")
	return il.DecodeBytes(data)
}

// EncodePNG encodes buf as PNG.
func (il *ImageLoader) EncodePNG(buf *buffer.Buffer) ([]byte, error) {
	if buf.Empty() {
		return nil, ErrEmptyImage
	}

	mat, err := gocv.ImageToMatRGB(buf.NRGBA())
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	native, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	defer native.Close()

	// GetBytes aliases C memory released by Close
	return append([]byte(nil), native.GetBytes()...), nil
}

// SaveImage writes buf to path; the extension picks the format.
func (il *ImageLoader) SaveImage(buf *buffer.Buffer, path string) error {
	il.logger.WithField("filepath", path).Debug("Saving image")

	if buf.Empty() {
		return ErrEmptyImage
	}
	if !IsSupportedImageFormat(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	mat, err := gocv.ImageToMatRGB(buf.NRGBA())
	if err != nil {
		return fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to save image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    buf.Width,
		"height":   buf.Height,
	}).Info("Image saved successfully")
	return nil
}

func (il *ImageLoader) GetSupportedFormats() []string {
	return []string{"JPEG", "PNG", "TIFF", "BMP"}
}

// IsSupportedImageFormat checks the file extension.
func IsSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

func matToBuffer(mat gocv.Mat) (*buffer.Buffer, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	buf := buffer.FromImage(img)
	buf.NormalizeAlpha()
	return buf, nil
}

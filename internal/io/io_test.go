package io

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-filter-sandbox/internal/buffer"
)

func newLoader() *ImageLoader {
	logger, _ := test.NewNullLogger()
	return NewImageLoader(logger)
}

func TestIsSupportedImageFormat(t *testing.T) {
	for _, p := range []string{"a.png", "b.JPG", "dir.v2/c.jpeg", "d.tif", "e.bmp"} {
		assert.True(t, IsSupportedImageFormat(p), p)
	}
	for _, p := range []string{"a.gif", "noext", "png", "a.png.txt"} {
		assert.False(t, IsSupportedImageFormat(p), p)
	}
}

func TestParseDataURL(t *testing.T) {
	mediaType, data, err := ParseDataURL("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)
	assert.Equal(t, []byte("hello"), data)

	mediaType, data, err = ParseDataURL("data:image/svg+xml,%3Csvg%3E")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", mediaType)
	assert.Equal(t, []byte("<svg>"), data)
}

func TestParseDataURLErrors(t *testing.T) {
	for _, raw := range []string{
		"http://example.com/a.png",
		"data:image/png;base64",
		"data:text/plain;base64,aGk=",
		"data:image/png;base64,!!!",
	} {
		_, _, err := ParseDataURL(raw)
		assert.ErrorIs(t, err, ErrInvalidDataURL, raw)
	}
}

func TestEncodeDataURL(t *testing.T) {
	url := EncodeDataURL("image/png", []byte{1, 2, 3})
	mediaType, data, err := ParseDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestTestCard(t *testing.T) {
	card := TestCard(64, 48)
	require.Equal(t, 64, card.Width)
	require.Equal(t, 48, card.Height)
	for i := 3; i < len(card.Pix); i += 4 {
		require.Equal(t, uint8(255), card.Pix[i])
	}

	// grey strip along the bottom
	o := card.Offset(63, 47)
	assert.Equal(t, []uint8{255, 255, 255}, card.Pix[o:o+3])
	o = card.Offset(0, 47)
	assert.Equal(t, []uint8{0, 0, 0}, card.Pix[o:o+3])
}

func TestPreview(t *testing.T) {
	card := TestCard(200, 100)

	same := Preview(card, 0)
	assert.Same(t, card, same)
	assert.Same(t, card, Preview(card, 400))

	small := Preview(card, 50)
	assert.Equal(t, 50, small.Width)
	assert.Equal(t, 25, small.Height)
}

func TestPNGRoundTrip(t *testing.T) {
	il := newLoader()
	card := TestCard(32, 24)

	data, err := il.EncodePNG(card)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])

	decoded, err := il.DecodeBytes(data)
	require.NoError(t, err)
	assert.True(t, buffer.Equal(card, decoded))

	fromURL, err := il.DecodeDataURL(EncodeDataURL("image/png", data))
	require.NoError(t, err)
	assert.True(t, buffer.Equal(card, fromURL))
}

func TestOpenAcceptsPathsAndDataURLs(t *testing.T) {
	il := newLoader()
	card := TestCard(12, 8)
	path := filepath.Join(t.TempDir(), "card.png")
	require.NoError(t, il.SaveImage(card, path))

	fromPath, err := il.Open(path)
	require.NoError(t, err)
	assert.True(t, buffer.Equal(card, fromPath))

	data, err := il.EncodePNG(card)
	require.NoError(t, err)
	fromURL, err := il.Open(EncodeDataURL("image/png", data))
	require.NoError(t, err)
	assert.True(t, buffer.Equal(card, fromURL))

	fromReader, err := il.ReadImage(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, buffer.Equal(card, fromReader))

	_, err = il.Open("data:text/plain,hi")
	assert.ErrorIs(t, err, ErrInvalidDataURL)
}

func TestSourceName(t *testing.T) {
	assert.True(t, IsDataURL("DATA:image/png;base64,AA=="))
	assert.False(t, IsDataURL("photo.png"))
	assert.Equal(t, "data:image/png", SourceName("data:image/png;base64,AAAA"))
	assert.Equal(t, "photo.png", SourceName("photo.png"))
}

func TestSaveAndLoad(t *testing.T) {
	il := newLoader()
	path := filepath.Join(t.TempDir(), "card.png")
	card := TestCard(16, 16)

	require.NoError(t, il.SaveImage(card, path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := il.LoadImage(path)
	require.NoError(t, err)
	assert.True(t, buffer.Equal(card, loaded))
}

func TestLoaderErrors(t *testing.T) {
	il := newLoader()

	_, err := il.LoadImage("image.gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.ErrorIs(t, il.SaveImage(buffer.New(0, 0), "x.png"), ErrEmptyImage)
	assert.ErrorIs(t, il.SaveImage(TestCard(2, 2), "x.gif"), ErrUnsupportedFormat)

	_, err = il.EncodePNG(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = il.DecodeBytes(nil)
	assert.Error(t, err)
}

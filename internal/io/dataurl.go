package io

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidDataURL = errors.New("invalid data URL")

// ParseDataURL splits "data:<mediatype>[;base64],<payload>" into its media
// type and decoded payload. Only image media types are accepted.
func ParseDataURL(raw string) (string, []byte, error) {
	raw = strings.TrimSpace(raw)
	if !IsDataURL(raw) {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}
	rest := raw[5:]

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURL)
	}

	params := strings.Split(meta, ";")
	mediaType := strings.ToLower(params[0])
	if !strings.HasPrefix(mediaType, "image/") {
		return "", nil, fmt.Errorf("%w: media type %q is not an image", ErrInvalidDataURL, params[0])
	}

	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(p, "base64") {
			isBase64 = true
		}
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
		}
		return mediaType, data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mediaType, []byte(text), nil
}

// IsDataURL reports whether source uses the data: scheme.
func IsDataURL(source string) bool {
	return len(source) >= 5 && strings.EqualFold(source[:5], "data:")
}

// SourceName shortens data URLs to their media type for logs and titles.
func SourceName(source string) string {
	if !IsDataURL(source) {
		return source
	}
	meta, _, _ := strings.Cut(source[5:], ",")
	mediaType, _, _ := strings.Cut(meta, ";")
	return "data:" + mediaType
}

// EncodeDataURL is the inverse of ParseDataURL for base64 payloads.
func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

package models

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// MediaKind is the top-level MIME type expected by a media flow
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// KindFor returns the media kind of a media modality
func KindFor(m Modality) (MediaKind, bool) {
	switch m {
	case ModalityImage:
		return KindImage, true
	case ModalityVideo:
		return KindVideo, true
	}
	return "", false
}

// Matches reports whether mimeType belongs to the kind, e.g. "image/png" for KindImage
func (k MediaKind) Matches(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), string(k)+"/")
}

// WithArticle returns the kind prefixed with its indefinite article, e.g. "an image"
func (k MediaKind) WithArticle() string {
	if k == KindImage {
		return "an " + string(k)
	}
	return "a " + string(k)
}

// Examples returns the user-facing list of accepted formats for the kind
func (k MediaKind) Examples() string {
	switch k {
	case KindImage:
		return "PNG, JPG, WEBP, or AVIF"
	case KindVideo:
		return "MP4, WEBM"
	}
	return ""
}

// IsMediaType reports whether mimeType is an image or video type
func IsMediaType(mimeType string) bool {
	return KindImage.Matches(mimeType) || KindVideo.Matches(mimeType)
}

// File is a user-supplied file: a reported MIME type plus a readable stream
type File struct {
	Name     string
	MimeType string
	Reader   io.Reader
}

// EncodedMedia is the canonical, self-describing form of a media payload
type EncodedMedia struct {
	MimeType string
	Data     []byte
}

const dataURIBase64Marker = ";base64,"

// DataURI serializes the media as data:<mimeType>;base64,<payload>
func (m EncodedMedia) DataURI() string {
	var b strings.Builder
	b.Grow(len("data:") + len(m.MimeType) + len(dataURIBase64Marker) + base64.StdEncoding.EncodedLen(len(m.Data)))
	b.WriteString("data:")
	b.WriteString(m.MimeType)
	b.WriteString(dataURIBase64Marker)
	b.WriteString(base64.StdEncoding.EncodeToString(m.Data))
	return b.String()
}

// Size returns the decoded payload size in bytes
func (m EncodedMedia) Size() int {
	return len(m.Data)
}

// ParseDataURI decodes a data:<mimeType>;base64,<payload> string
func ParseDataURI(uri string) (EncodedMedia, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return EncodedMedia{}, fmt.Errorf("data URI must start with \"data:\"")
	}

	idx := strings.Index(rest, dataURIBase64Marker)
	if idx < 0 {
		return EncodedMedia{}, fmt.Errorf("data URI must use base64 encoding")
	}

	mimeType := rest[:idx]
	if mimeType == "" || !strings.Contains(mimeType, "/") {
		return EncodedMedia{}, fmt.Errorf("data URI must include a MIME type")
	}

	data, err := base64.StdEncoding.DecodeString(rest[idx+len(dataURIBase64Marker):])
	if err != nil {
		return EncodedMedia{}, fmt.Errorf("invalid base64 payload: %w", err)
	}

	return EncodedMedia{MimeType: mimeType, Data: data}, nil
}

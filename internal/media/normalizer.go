package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/azure/ai-content-detector/internal/analysis"
	"github.com/azure/ai-content-detector/internal/models"
)

const (
	// DefaultMaxBytes bounds files and fetched bodies
	DefaultMaxBytes int64 = 20 << 20

	defaultFetchTimeout = 30 * time.Second
	acceptMedia         = "image/*,video/*"
	sniffLen            = 512
)

// Normalizer turns user files and URLs into EncodedMedia
type Normalizer struct {
	client   *resty.Client
	maxBytes int64
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithMaxBytes sets the largest accepted payload
func WithMaxBytes(n int64) Option {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.maxBytes = n
		}
	}
}

// WithFetchTimeout bounds URL fetches
func WithFetchTimeout(d time.Duration) Option {
	return func(nz *Normalizer) {
		if d > 0 {
			nz.client.SetTimeout(d)
		}
	}
}

const userAgent = "AI-Content-Detector/1.0"

// NewNormalizer creates a normalizer
func NewNormalizer(opts ...Option) *Normalizer {
	nz := &Normalizer{
		client: resty.New().
			SetTimeout(defaultFetchTimeout).
			SetHeader("User-Agent", userAgent),
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(nz)
	}
	return nz
}

// MaxBytes returns the configured payload limit
func (nz *Normalizer) MaxBytes() int64 {
	return nz.maxBytes
}

// NormalizeFile encodes a user-supplied file of the given kind.
// The file is not read when its reported type does not match the kind.
func (nz *Normalizer) NormalizeFile(ctx context.Context, file models.File, kind models.MediaKind) (models.EncodedMedia, error) {
	if !kind.Matches(file.MimeType) {
		return models.EncodedMedia{}, analysis.NewError(analysis.KindInvalidFileType,
			"Please upload %s file (e.g., %s).", kind.WithArticle(), kind.Examples())
	}

	if file.Reader == nil {
		return models.EncodedMedia{}, analysis.NewError(analysis.KindFileReadError, "Failed to read the selected file.")
	}

	data, err := nz.readAll(ctx, file.Reader)
	if err != nil {
		if analysis.KindOf(err) == analysis.KindMediaTooLarge {
			return models.EncodedMedia{}, err
		}
		return models.EncodedMedia{}, analysis.WrapError(analysis.KindFileReadError, err, "Failed to read the selected file.")
	}

	logrus.WithFields(logrus.Fields{
		"file":      file.Name,
		"mime_type": file.MimeType,
		"size":      len(data),
	}).Debug("Normalized uploaded file")

	return models.EncodedMedia{MimeType: file.MimeType, Data: data}, nil
}

// NormalizeURL fetches a remote media file. An empty kind accepts any image or video.
func (nz *Normalizer) NormalizeURL(ctx context.Context, rawURL string, kind models.MediaKind) (models.EncodedMedia, error) {
	target, err := parseMediaURL(rawURL)
	if err != nil {
		return models.EncodedMedia{}, err
	}

	resp, err := nz.client.R().
		SetContext(ctx).
		SetHeader("Accept", acceptMedia).
		SetDoNotParseResponse(true).
		Get(target.String())
	if err != nil {
		return models.EncodedMedia{}, analysis.WrapError(analysis.KindFetchFailed, err,
			"Failed to fetch media from URL. Please check the link and try again.")
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return models.EncodedMedia{}, &analysis.Error{
			Kind:       analysis.KindFetchFailed,
			Message:    fmt.Sprintf("Failed to fetch media from URL. Status: %d %s", resp.StatusCode(), http.StatusText(resp.StatusCode())),
			StatusCode: resp.StatusCode(),
		}
	}

	contentType := strings.TrimSpace(resp.Header().Get("Content-Type"))
	if !models.IsMediaType(contentType) {
		head, _ := io.ReadAll(io.LimitReader(body, sniffLen))
		if looksLikeHTML(head) {
			return models.EncodedMedia{}, analysis.NewError(analysis.KindWebpageNotMedia,
				"The URL points to a webpage, not a direct image or video file. Please provide a direct link to the media.")
		}
		return models.EncodedMedia{}, unsupported(contentType)
	}

	if kind != "" && !kind.Matches(contentType) {
		return models.EncodedMedia{}, unsupported(contentType)
	}

	data, err := nz.readAll(ctx, body)
	if err != nil {
		if analysis.KindOf(err) == analysis.KindMediaTooLarge {
			return models.EncodedMedia{}, err
		}
		return models.EncodedMedia{}, analysis.WrapError(analysis.KindFetchFailed, err,
			"Failed to fetch media from URL. The download was interrupted.")
	}

	logrus.WithFields(logrus.Fields{
		"host":      target.Host,
		"mime_type": contentType,
		"size":      len(data),
	}).Debug("Normalized remote media")

	return models.EncodedMedia{MimeType: contentType, Data: data}, nil
}

func unsupported(contentType string) *analysis.Error {
	return analysis.NewError(analysis.KindUnsupportedContentType,
		"Unsupported or missing content type: '%s'. Please provide a direct link to an image or video.", contentType)
}

func parseMediaURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, analysis.NewError(analysis.KindInvalidURL, "Please enter a URL.")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, analysis.WrapError(analysis.KindInvalidURL, err, "The URL is not valid.")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, analysis.NewError(analysis.KindInvalidURL, "The URL must be an absolute http or https link.")
	}
	return u, nil
}

// looksLikeHTML reports whether the start of a body is an HTML document
func looksLikeHTML(head []byte) bool {
	trimmed := strings.ToLower(strings.TrimSpace(string(head)))
	if strings.HasPrefix(trimmed, "<!doctype html") || strings.HasPrefix(trimmed, "<html") {
		return true
	}
	if len(head) == 0 {
		return false
	}
	return mimetype.Detect(head).Is("text/html")
}

// readAll reads r fully, failing with MediaTooLarge once the limit is exceeded
func (nz *Normalizer) readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(ctxReader{ctx: ctx, r: r}, nz.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if n > nz.maxBytes {
		return nil, analysis.NewError(analysis.KindMediaTooLarge,
			"The media is larger than the %s limit.", FormatLimit(nz.maxBytes))
	}
	return buf.Bytes(), nil
}

// ctxReader stops reading once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("read media: %w", err)
	}
	return n, err
}

// FormatLimit renders a byte limit as whole megabytes when it is one, else as bytes
func FormatLimit(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

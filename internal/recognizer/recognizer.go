// Package recognizer is the HTTP client for the hosted plate recognition API.
package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"platereader/internal/model"
)

const (
	// UploadField is the multipart field name the upstream API reads the image from.
	UploadField = "upload"
	// UploadFilename is sent for every image regardless of the client's file name.
	UploadFilename = "plate.jpg"
)

var (
	ErrMissingToken = errors.New("recognizer token is not configured")
	ErrReaderNil    = errors.New("image reader is nil")
)

// StatusError reports a non-2xx answer from the upstream API.
// The response body is intentionally not carried.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recognizer responded with status %d", e.Code)
}

// Recognizer reads license plates from an image.
type Recognizer interface {
	Read(ctx context.Context, image io.Reader, contentType string) ([]model.Detection, error)
}

// TokenFunc returns the API token to use for the next call.
type TokenFunc func() string

// Client calls the upstream reader endpoint. It is safe for concurrent use.
type Client struct {
	url        string
	token      TokenFunc
	httpClient *http.Client
	metrics    *Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the traced default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records call latency and detection counts.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a Client posting to url and authenticating with the token returned by token.
func New(url string, token TokenFunc, opts ...Option) *Client {
	c := &Client{
		url:   url,
		token: token,
		// Transport defaults only; no client-level timeout.
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Recognizer = (*Client)(nil)

type readerResponse struct {
	Results []model.Detection `json:"results"`
}

// Read forwards the image to the upstream API and returns its results array.
// There is no retry; any transport, status or decode failure is returned as an error.
func (c *Client) Read(ctx context.Context, image io.Reader, contentType string) (dets []model.Detection, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(time.Since(start), len(dets), err) }()

	if image == nil {
		return nil, ErrReaderNil
	}
	token := c.token()
	if token == "" {
		return nil, ErrMissingToken
	}

	body, formType, err := encodeUpload(image, contentType)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Content-Type", formType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call recognizer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var out readerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Results == nil {
		out.Results = []model.Detection{}
	}
	return out.Results, nil
}

// encodeUpload wraps the image into a single-file multipart body.
func encodeUpload(image io.Reader, contentType string) (*bytes.Buffer, string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadField, UploadFilename))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

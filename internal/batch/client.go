package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Uploader posts one image to the proxy endpoint and returns the raw plate strings.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) ([]string, error)
}

// ProxyClient talks to POST /api/plate-reader.
type ProxyClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewProxyClient returns a client for endpoint. hc may be nil.
func NewProxyClient(endpoint string, hc *http.Client) *ProxyClient {
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &ProxyClient{endpoint: endpoint, httpClient: hc}
}

var _ Uploader = (*ProxyClient)(nil)

type proxyResponse struct {
	Plate []struct {
		Plate string `json:"plate"`
	} `json:"plate"`
	Error string `json:"error"`
}

// Upload sends data in a fresh multipart body under field "image".
func (p *ProxyClient) Upload(ctx context.Context, filename, contentType string, data []byte) ([]string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	var out proxyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxy answered %d: %s", resp.StatusCode, out.Error)
	}

	plates := make([]string, 0, len(out.Plate))
	for _, d := range out.Plate {
		plates = append(plates, d.Plate)
	}
	return plates, nil
}

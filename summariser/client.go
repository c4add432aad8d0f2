package summariser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	DefaultEndpoint       = "http://localhost:8000"
	DefaultRequestTimeout = 2 * time.Minute
	uploadPath            = "/upload-resume"
	defaultAPIErrorText   = "Failed to generate summary."
)

// APIError is a non-2xx answer from the summarisation endpoint.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Detail) != "" {
		return e.Detail
	}
	return defaultAPIErrorText
}

// Summariser is the outbound half of an upload session.
type Summariser interface {
	Summarise(ctx context.Context, up *FileUpload) (*SummaryResponse, error)
}

// Client talks to the summarisation endpoint over multipart HTTP.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Endpoint() string { return c.endpoint }

// Summarise posts the file as the multipart field "file".
func (c *Client) Summarise(ctx context.Context, up *FileUpload) (*SummaryResponse, error) {
	if up == nil || up.Body == nil {
		return nil, ErrNoFile
	}
	body, contentType, err := buildMultipart(up)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+uploadPath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}
	var out SummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode summary response: %w", err)
	}
	return &out, nil
}

// Ping checks that the endpoint answers on its root path.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint responded with status %d", resp.StatusCode)
	}
	return nil
}

func buildMultipart(up *FileUpload) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(up.Name)))
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		switch d := body.Detail.(type) {
		case string:
			apiErr.Detail = d
		case nil:
		default:
			// FastAPI validation errors carry a list of objects.
			if b, err := json.Marshal(d); err == nil {
				apiErr.Detail = string(b)
			}
		}
	}
	return apiErr
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/engine"
	"github.com/docpipe/docpipe/pkg/requestid"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// APIError is returned for any non 2xx answer of the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded with %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type UploadResult struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
}

type Status struct {
	FileName      string  `json:"fileName"`
	OriginalPath  string  `json:"originalPath"`
	ConvertedPath *string `json:"convertedPath"`
	Status        string  `json:"status"`
	Error         *string `json:"error,omitempty"`
}

func (s *Status) Pending() bool {
	return s.Status == StatusPending
}

type metadataReply struct {
	Metadata map[string]string `json:"metadata"`
}

type errorReply struct {
	Message string `json:"message"`
}

// Download describes a file streamed by Client.Download.
type Download struct {
	FileName    string
	ContentType string
	Size        int64
}

// Client talks to the docpipe API, either directly or through the gateway.
type Client struct {
	server     string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func New(server string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", server, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host are required", server)
	}

	c := &Client{
		server:     strings.TrimRight(server, "/"),
		httpClient: newHTTPClient(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// NewFromConfig returns a new docpipe API client from the given config.
func NewFromConfig(config *Config, opts ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return New(config.Service.Server, opts...)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Upload streams content as the multipart "file" field under fileName.
func (c *Client) Upload(ctx context.Context, fileName string, content io.Reader) (*UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     "file",
			"filename": fileName,
		}))
		h.Set("Content-Type", engine.DocxContentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(fmt.Errorf("copying file into multipart: %w", err))
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	result := &UploadResult{}
	if err := c.doJSON(req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetStatus(ctx context.Context, id string) (*Status, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/status/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	status := &Status{}
	if err := c.doJSON(req, status); err != nil {
		return nil, err
	}
	return status, nil
}

// GetMetadata returns an APIError with StatusNotFound while no properties are stored.
func (c *Client) GetMetadata(ctx context.Context, id string) (map[string]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/metadata/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	reply := metadataReply{}
	if err := c.doJSON(req, &reply); err != nil {
		return nil, err
	}
	if reply.Metadata == nil {
		reply.Metadata = map[string]string{}
	}
	return reply.Metadata, nil
}

// Download copies the best available rendition of the document into w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/download/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading download body: %w", err)
	}

	return &Download{
		FileName:    fileNameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        n,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestid.Inject(ctx, req)
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response of %s: %w", req.URL.Path, err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	reply := errorReply{}
	if json.Unmarshal(body, &reply) == nil {
		apiErr.Message = reply.Message
	}
	return apiErr
}

// fileNameFromDisposition prefers the RFC 5987 filename* parameter when present.
func fileNameFromDisposition(value string) string {
	if value == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return ""
	}
	return params["filename"]
}

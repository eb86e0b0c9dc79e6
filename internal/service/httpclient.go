package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
)

const maxPageBytes = 32 << 20

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHTTPClient struct{ *http.Client }

// NewHTTPClient bounds every request, body included, by timeout. Use it for
// page fetches only.
func NewHTTPClient(timeout time.Duration) *DefaultHTTPClient {
	return &DefaultHTTPClient{Client: &http.Client{Timeout: timeout}}
}

// NewDownloadClient returns a client for archive downloads. Connecting, the
// TLS handshake and waiting for response headers are each bounded by
// stallTimeout, but reading the body is not: a transfer only ends when it
// completes or its context is canceled.
func NewDownloadClient(stallTimeout time.Duration) *DefaultHTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   stallTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = stallTimeout
	transport.ResponseHeaderTimeout = stallTimeout

	return &DefaultHTTPClient{Client: &http.Client{Transport: transport}}
}

// ForDownloads derives a download client from c by lifting its whole-request
// timeout. Clients other than *http.Client and *DefaultHTTPClient are
// returned unchanged.
func ForDownloads(c HTTPClient) HTTPClient {
	switch v := c.(type) {
	case *DefaultHTTPClient:
		return &DefaultHTTPClient{Client: withoutTimeout(v.Client)}
	case *http.Client:
		return withoutTimeout(v)
	default:
		return c
	}
}

func withoutTimeout(c *http.Client) *http.Client {
	cp := *c
	cp.Timeout = 0
	return &cp
}

// get issues a single GET and maps failures onto the error taxonomy: transport
// problems become *errs.NetworkError, non-2xx statuses *errs.RemoteFetchError.
// The caller owns the returned body.
func get(ctx context.Context, c HTTPClient, rawURL string, cookies map[string]string) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &errs.NetworkError{URL: rawURL, Err: err}
	}

	parsed, err := utils.ParseSecureURL(rawURL)
	if err != nil {
		return nil, errs.InvalidArgument("%v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Stable order keeps the header deterministic for tests and proxies.
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: cookies[name]})
	}

	resp, err := c.Do(req)
	if err != nil {
		logger.Debug("request to %s failed: %v", rawURL, err)
		return nil, &errs.NetworkError{URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		utils.Close(resp.Body)
		logger.Debug("received non-2xx response from %s: %d", rawURL, resp.StatusCode)
		return nil, &errs.RemoteFetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// FetchPage returns the body of the index page at rawURL as text. There is
// no retry: a failed attempt ends the calling operation.
func FetchPage(ctx context.Context, c HTTPClient, rawURL string, cookies map[string]string) (string, error) {
	resp, err := get(ctx, c, rawURL, cookies)
	if err != nil {
		return "", err
	}
	defer utils.Try(resp.Body.Close)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", &errs.NetworkError{URL: rawURL, Err: err}
	}

	logger.Debug("fetched %s (%d bytes)", rawURL, len(body))
	return string(body), nil
}

// DownloadToFile streams rawURL into dst, truncating any previous content,
// and returns the number of bytes written.
func DownloadToFile(ctx context.Context, c HTTPClient, rawURL, dst string, maxSize int64) (int64, error) {
	resp, err := get(ctx, c, rawURL, nil)
	if err != nil {
		return 0, err
	}
	defer utils.Try(resp.Body.Close)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer utils.Close(f)

	var src io.Reader = resp.Body
	if maxSize > 0 {
		src = io.LimitReader(resp.Body, maxSize)
	}

	n, err := io.Copy(f, src)
	if err != nil {
		return n, &errs.NetworkError{URL: rawURL, Err: err}
	}
	return n, nil
}

package geoloc

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxBodyBytes bounds how much of a provider response is read.
const maxBodyBytes = 64 << 10

// NewHTTPClient returns a client with bounded dial and TLS handshake times.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// get performs a GET and returns the status code and (bounded) body. The
// error is non-nil only when no response was received.
func get(ctx context.Context, client *http.Client, url string) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/plain")
	httpReq.Header.Set("User-Agent", "calrefine")

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// lookup runs one request and fills a Lookup using parse for 200 bodies.
func lookup(ctx context.Context, client *http.Client, name, url string, parse func([]byte) string) (*Lookup, error) {
	result := &Lookup{ProviderName: name}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	status, body, err := get(ctx, client, url)
	result.StatusCode = status
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	if status != http.StatusOK {
		result.Error = fmt.Sprintf("API returned status %d", status)
		return result, nil
	}

	result.Timezone = parse(body)
	if result.Timezone == "" {
		result.Error = "empty timezone in response"
	}
	return result, nil
}

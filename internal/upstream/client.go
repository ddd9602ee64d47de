package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 8 * time.Second

const userAgent = "coinpulse/1.0"

// Client performs JSON GETs against public market APIs.
type Client struct {
	HTTP    *http.Client
	Timeout time.Duration
}

func NewClient() *Client {
	return &Client{
		HTTP:    &http.Client{},
		Timeout: DefaultTimeout,
	}
}

// GetJSON fetches url and decodes the body into out. Failures are returned
// as *FetchError tagged with source.
func (c *Client) GetJSON(ctx context.Context, source, url string, header http.Header, out any) error {
	body, err := c.Get(ctx, source, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Source: source, Kind: KindMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Get returns the raw body of a successful response.
func (c *Client) Get(ctx context.Context, source, url string, header http.Header) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Source: source, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Source: source, Kind: Classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var cause error
		if len(snippet) > 0 {
			cause = fmt.Errorf("%s", string(snippet))
		}
		return nil, &FetchError{Source: source, Kind: KindUpstream, StatusCode: resp.StatusCode, Err: cause}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: source, Kind: Classify(err), Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

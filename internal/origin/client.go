package origin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dailycast/internal/services"
)

// Client provides access to the origin's item and audio endpoints.
type Client struct {
	baseURL    string
	apiBaseURL string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client used for binary
// downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an origin client.
func New(baseURL, apiBaseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("origin base url required")
	}
	apiBaseURL = strings.TrimRight(strings.TrimSpace(apiBaseURL), "/")
	if apiBaseURL == "" {
		return nil, errors.New("origin api base url required")
	}
	client := &Client{
		baseURL:    baseURL,
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the origin's web base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ItemDetails fetches the full item metadata for id through the
// authenticated fetcher and resolves the cover variant to download.
func (c *Client) ItemDetails(ctx context.Context, fetcher AuthenticatedFetcher, id string) (Detail, error) {
	url := fmt.Sprintf("%s/v4/books/%s", c.apiBaseURL, id)
	var payload detailResponse
	if err := fetcher.FetchJSON(ctx, url, &payload); err != nil {
		return Detail{}, services.Wrap(services.ErrTransient, "origin", "fetch item details", id, err)
	}
	if payload.Book.ID == "" || len(payload.Book.Chapters) == 0 {
		return Detail{}, services.Wrap(services.ErrMalformed, "origin", "item details", "missing id or chapters", nil)
	}
	return Detail{Item: payload.Book.toItem(), CoverURL: payload.Book.coverURL()}, nil
}

// ChapterAudioURL resolves the signed download URL for one chapter's audio.
// The endpoint requires the page's authentication context.
func (c *Client) ChapterAudioURL(ctx context.Context, fetcher AuthenticatedFetcher, itemID, chapterID string) (string, error) {
	url := fmt.Sprintf("%s/api/books/%s/chapters/%s/audio", c.baseURL, itemID, chapterID)
	var payload audioResponse
	if err := fetcher.FetchJSON(ctx, url, &payload); err != nil {
		return "", services.Wrap(services.ErrTransient, "origin", "resolve chapter audio url", chapterID, err)
	}
	if payload.URL == "" {
		return "", services.Wrap(services.ErrMalformed, "origin", "chapter audio url", "empty url in payload", nil)
	}
	return payload.URL, nil
}

// DownloadBinary fetches a direct binary URL (audio or image) with the plain
// HTTP client; signed URLs need no session context.
func (c *Client) DownloadBinary(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "origin", "build download request", url, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "origin", "download", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "origin", "download", fmt.Sprintf("%s: status %d", url, resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "origin", "read download body", url, err)
	}
	return data, nil
}

// PlainFetcher is the direct-HTTP implementation of AuthenticatedFetcher for
// origins that serve these endpoints without session state. It still sends
// the XHR marker header the origin expects.
type PlainFetcher struct {
	Client *http.Client
}

func (f *PlainFetcher) httpClient() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// FetchText performs a GET and returns the response body as text.
func (f *PlainFetcher) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, err := f.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FetchJSON performs a GET and decodes the response into v.
func (f *PlainFetcher) FetchJSON(ctx context.Context, url string, v any) error {
	text, err := f.FetchText(ctx, url)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(text), v)
}

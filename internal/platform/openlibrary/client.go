package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"libraryapi/internal/book"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client looks up book metadata on Open Library. It implements
// book.MetadataSource.
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(baseURL, userAgent string, rps int, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

// bookDetails matches the entries of api/books?jscmd=data
type bookDetails struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// LookupISBN returns the title and authors recorded for isbn, or
// book.ErrNotFound when Open Library has no entry for it.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (book.Metadata, error) {
	key := "ISBN:" + isbn
	u := fmt.Sprintf("%s/api/books?bibkeys=%s&jscmd=data&format=json", c.baseURL, url.QueryEscape(key))

	var res map[string]bookDetails
	if err := c.get(ctx, u, &res); err != nil {
		return book.Metadata{}, err
	}

	details, ok := res[key]
	if !ok || details.Title == "" {
		return book.Metadata{}, book.ErrNotFound
	}

	md := book.Metadata{Title: details.Title}
	if details.Subtitle != "" {
		md.Title += ": " + details.Subtitle
	}
	for _, a := range details.Authors {
		if a.Name != "" {
			md.Authors = append(md.Authors, a.Name)
		}
	}
	return md, nil
}

func (c *Client) get(ctx context.Context, rawURL string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := c.backoff << uint(i-1)
			zerolog.Ctx(ctx).Debug().Err(lastErr).Int("attempt", i).Dur("backoff", backoff).Msg("openlibrary retry")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.do(ctx, rawURL, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, rawURL string, target any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("decode openlibrary response: %w", err)
	}
	return false, nil
}

// Package proxy does the server-side fetching the browser cannot do
// itself: calendar and RSS feeds, GitHub release lookups and AI usage
// APIs, all behind the URL guard and hard resource limits.
package proxy

import (
	"context"
	"io"
	"net/http"
	"time"

	"lobsterboard-server-go/internal/domain/guard"
	"lobsterboard-server-go/internal/platform/errors"
)

const userAgent = "LobsterBoard/1.0"

// ErrBodyTooLarge is returned when an upstream response exceeds the
// configured byte cap.
var ErrBodyTooLarge = errors.New(errors.KindProxy, "proxy", "response body exceeds size limit")

// Client fetches untrusted remote URLs with a timeout, a redirect
// budget and a body cap. Every hop of a redirect chain is re-checked
// against the guard, so an allowed public URL cannot bounce the server
// into its own network.
type Client struct {
	httpClient *http.Client
	maxBody    int64

	// checkURL defaults to guard.CheckURL; tests swap it so local
	// listeners are reachable.
	checkURL func(string) error
}

func NewClient(timeout time.Duration, maxRedirects int, maxBody int64) *Client {
	c := &Client{
		maxBody:  maxBody,
		checkURL: guard.CheckURL,
	}
	c.httpClient = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errors.New(errors.KindProxy, "proxy", "too many redirects")
			}
			return c.checkURL(req.URL.String())
		},
	}
	return c
}

// Fetch GETs an untrusted URL and returns at most maxBody bytes of the
// response. The guard runs before any connection is made.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.checkURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.KindProxy, "proxy.fetch", "build request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.KindProxy, "proxy.fetch", "fetch "+rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.KindProxy, "proxy.fetch",
			"upstream returned HTTP "+resp.Status)
	}
	return readCapped(resp.Body, c.maxBody)
}

// Do issues an arbitrary request through the limited client. Callers
// outside Fetch use it for trusted, hardcoded API hosts.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return c.httpClient.Do(req)
}

func readCapped(r io.Reader, maxBody int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBody+1))
	if err != nil {
		return nil, errors.Wrap(errors.KindProxy, "proxy.fetch", "read body", err)
	}
	if int64(len(body)) > maxBody {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

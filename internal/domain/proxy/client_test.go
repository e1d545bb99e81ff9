package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobsterboard-server-go/internal/domain/guard"
)

// testClient allows loopback so httptest servers are reachable, while
// still denying 192.168.* to exercise mid-chain enforcement.
func testClient(maxRedirects int, maxBody int64) *Client {
	c := NewClient(5*time.Second, maxRedirects, maxBody)
	c.checkURL = func(raw string) error {
		if strings.Contains(raw, "192.168.") {
			return guard.ErrPrivateHost
		}
		return nil
	}
	return c
}

func TestFetch_GuardRunsBeforeAnyConnection(t *testing.T) {
	c := NewClient(5*time.Second, 3, 1024)
	for _, u := range []string{
		"http://127.0.0.1/feed.ics",
		"http://10.0.0.1/x",
		"http://localhost:8080/x",
		"ftp://example.com/x",
		"not a url",
	} {
		_, err := c.Fetch(context.Background(), u)
		assert.Error(t, err, u)
	}
}

func TestFetch_SetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	body, err := testClient(3, 1024).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, "LobsterBoard/1.0", gotUA)
}

func TestFetch_RedirectToDeniedHostAbortsMidChain(t *testing.T) {
	target := "http://192.168.1.1/internal"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	}))
	defer srv.Close()

	_, err := testClient(3, 1024).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private")
}

func TestFetch_RedirectBudgetExhausted(t *testing.T) {
	hops := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", srv.URL, hops), http.StatusFound)
	}))
	defer srv.Close()

	_, err := testClient(3, 1024).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirects")
	// Origin plus three allowed redirects; the fourth is refused
	// before it is followed.
	assert.Equal(t, 4, hops)
}

func TestFetch_RedirectWithinBudgetSucceeds(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			fmt.Fprint(w, "payload")
			return
		}
		http.Redirect(w, r, srv.URL+"/final", http.StatusFound)
	}))
	defer srv.Close()

	body, err := testClient(3, 1024).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
}

func TestFetch_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 2048))
	}))
	defer srv.Close()

	_, err := testClient(3, 1024).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	body, err := testClient(3, 2048).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 2048, "a body exactly at the cap passes")
}

func TestFetch_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(3, 1024).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

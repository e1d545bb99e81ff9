package webapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarRequiresURL(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/calendar", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Missing url parameter", body["message"])
}

func TestCalendarBlocksPrivateAddresses(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{
		"http://127.0.0.1/cal.ics",
		"http://localhost/cal.ics",
		"http://10.0.0.5/cal.ics",
		"http://192.168.1.1/cal.ics",
		"http://169.254.169.254/latest/meta-data",
	} {
		w := ts.do(http.MethodGet, "/api/calendar?url="+target, "")
		require.Equal(t, http.StatusBadRequest, w.Code, target)
		body := decodeBody(t, w)
		assert.Equal(t, "URLs pointing to private/internal addresses are not allowed", body["message"], target)
	}
}

func TestCalendarBlocksNonHTTPSchemes(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{
		"ftp://example.com/cal.ics",
		"file:///etc/passwd",
	} {
		w := ts.do(http.MethodGet, "/api/calendar?url="+target, "")
		require.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, "Only http and https URLs are allowed", decodeBody(t, w)["message"], target)
	}
}

func TestRSSSharesGuard(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/rss", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing url parameter", decodeBody(t, w)["message"])

	w = ts.do(http.MethodGet, "/api/rss?url=http://192.168.0.10/feed.xml", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "URLs pointing to private/internal addresses are not allowed", decodeBody(t, w)["message"])
}

func TestCalendarMaskedURLFallsBackToStore(t *testing.T) {
	ts := newTestServer(t)

	// The browser only holds the placeholder; without a stored secret
	// the request has no usable URL.
	w := ts.do(http.MethodGet, "/api/calendar?url=%E2%80%A2%E2%80%A2%E2%80%A2%E2%80%A2%E2%80%A2%E2%80%A2%E2%80%A2%E2%80%A2", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing url parameter", decodeBody(t, w)["message"])

	// A stored secret resolved by widget id is still guard-checked.
	require.NoError(t, ts.svc.Secrets.Put("cal-1", map[string]string{"icalUrl": "http://192.168.1.20/private.ics"}))
	w = ts.do(http.MethodGet, "/api/calendar?widgetId=cal-1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "URLs pointing to private/internal addresses are not allowed", decodeBody(t, w)["message"])
}

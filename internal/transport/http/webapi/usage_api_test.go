package webapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobsterboard-server-go/internal/domain/secrets"
)

func TestUsageWithoutKeyIsSoftError(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/usage/claude", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "No API key configured. Add your Anthropic Admin key in the widget properties.", body["error"])
	assert.Equal(t, float64(0), body["tokens"])
	assert.Equal(t, float64(0), body["cost"])
	assert.Equal(t, []any{}, body["models"])

	w = ts.do(http.MethodGet, "/api/usage/openai", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "No API key configured. Add your OpenAI key in the widget properties.", body["error"])
}

func TestUsageKeyResolution(t *testing.T) {
	ts := newTestServer(t)

	// Nothing configured anywhere.
	assert.Equal(t, "", ts.svc.usageKey("", "ai-usage-claude"))

	// Server-level key wins outright.
	assert.Equal(t, "env-key", ts.svc.usageKey("env-key", "ai-usage-claude"))

	// A plaintext widget property is used directly.
	require.NoError(t, ts.svc.ConfigDoc.Save(map[string]any{
		"widgets": []any{
			map[string]any{
				"id":         "u1",
				"type":       "ai-usage-claude",
				"properties": map[string]any{"apiKey": "widget-key"},
			},
		},
	}))
	assert.Equal(t, "widget-key", ts.svc.usageKey("", "ai-usage-claude"))

	// A masked property falls through to the secret store.
	require.NoError(t, ts.svc.ConfigDoc.Save(map[string]any{
		"widgets": []any{
			map[string]any{
				"id":         "u1",
				"type":       "ai-usage-claude",
				"properties": map[string]any{"apiKey": secrets.Placeholder},
			},
		},
	}))
	assert.Equal(t, "", ts.svc.usageKey("", "ai-usage-claude"))
	require.NoError(t, ts.svc.Secrets.Put("u1", map[string]string{"apiKey": "stored-key"}))
	assert.Equal(t, "stored-key", ts.svc.usageKey("", "ai-usage-claude"))
}

package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lobsterboard-server-go/internal/domain/proxy"
	"lobsterboard-server-go/internal/domain/secrets"
)

// usageKey resolves an API key for a usage widget: environment first,
// then a plaintext widget property, then the secret store.
func (s *Service) usageKey(envKey, widgetType string) string {
	if envKey != "" {
		return envKey
	}
	widgets, _ := s.ConfigDoc.Load()["widgets"].([]any)
	for _, w := range widgets {
		widget, ok := w.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := widget["type"].(string); t != widgetType {
			continue
		}
		if props, ok := widget["properties"].(map[string]any); ok {
			if key, _ := props["apiKey"].(string); key != "" && key != secrets.Sentinel && key != secrets.Placeholder {
				return key
			}
		}
		id, _ := widget["id"].(string)
		if stored, ok := s.Secrets.Get(id, "apiKey"); ok {
			return stored
		}
		return ""
	}
	return ""
}

func (s *Service) handleClaudeUsage(c *gin.Context) {
	key := s.usageKey(s.Config.Usage.AnthropicAdminKey, "ai-usage-claude")
	if key == "" {
		c.JSON(http.StatusOK, proxy.UsageReport{
			Error:  "No API key configured. Add your Anthropic Admin key in the widget properties.",
			Models: []proxy.ModelUsage{},
		})
		return
	}
	c.JSON(http.StatusOK, s.Usage.Claude(c.Request.Context(), key))
}

func (s *Service) handleOpenAIUsage(c *gin.Context) {
	key := s.usageKey(s.Config.Usage.OpenAIKey, "ai-usage-openai")
	if key == "" {
		c.JSON(http.StatusOK, proxy.UsageReport{
			Error:  "No API key configured. Add your OpenAI key in the widget properties.",
			Models: []proxy.ModelUsage{},
		})
		return
	}
	c.JSON(http.StatusOK, s.Usage.OpenAI(c.Request.Context(), key))
}

// Package webapi is the HTTP transport for the dashboard companion
// API: config persistence, auth gate, secret management, proxied
// feeds, release and usage lookups, stats streaming and templates.
package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lobsterboard-server-go/internal/domain/authgate"
	"lobsterboard-server-go/internal/domain/ical"
	"lobsterboard-server-go/internal/domain/proxy"
	"lobsterboard-server-go/internal/domain/secrets"
	"lobsterboard-server-go/internal/domain/stats"
	"lobsterboard-server-go/internal/domain/templates"
	"lobsterboard-server-go/internal/platform/config"
	"lobsterboard-server-go/internal/platform/errors"
	"lobsterboard-server-go/internal/platform/logging"
	"lobsterboard-server-go/internal/platform/storage"
	httptransport "lobsterboard-server-go/internal/transport/http"
)

const (
	maxConfigBody = 1 << 20
	maxTodosBody  = 256 << 10
	maxNotesBody  = 512 << 10
)

// Deps collects everything the API layer serves.
type Deps struct {
	Config    *config.Config
	Logger    *logging.Logger
	ConfigDoc *storage.Document[map[string]any]
	Secrets   *secrets.Store
	Gate      *authgate.Gate
	Client    *proxy.Client
	Releases  *proxy.ReleaseChecker
	Usage     *proxy.UsageService
	Collector *stats.Collector
	Hub       *stats.Hub
	Templates *templates.Library
	Todos     *storage.Document[[]any]
	Notes     *storage.Document[map[string]any]
}

// Service is the HTTP transport layer for the dashboard API.
type Service struct {
	Deps
	calendarCache *proxy.TTLCache[[]ical.Event]
}

func NewService(deps Deps) (*Service, error) {
	if deps.Config == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "config is required")
	}
	if deps.Logger == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "logger is required")
	}
	return &Service{
		Deps:          deps,
		calendarCache: proxy.NewTTLCache[[]ical.Event](deps.Config.Proxy.CalendarTTL),
	}, nil
}

// Register wires every route. The dashboard config endpoints stay at
// the engine root so the browser bundle keeps its historical paths.
func (s *Service) Register(r *httptransport.Router) {
	r.Engine.GET("/config", s.handleConfigGet)
	r.Engine.POST("/config", s.limitBody(maxConfigBody), s.requirePrivate(), s.handleConfigPost)

	api := r.API

	api.GET("/auth/status", s.handleAuthStatus)
	api.POST("/auth/set-pin", s.handleSetPIN)
	api.POST("/auth/verify-pin", s.handleVerifyPIN)
	api.POST("/auth/remove-pin", s.handleRemovePIN)
	api.GET("/mode", s.handleModeGet)
	api.POST("/mode", s.handleModePost)

	api.POST("/secrets/:widgetId", s.requirePrivateDenied(), s.handleSecretsPut)
	api.DELETE("/secrets/:widgetId/:key", s.requirePrivateDenied(), s.handleSecretsDelete)

	api.GET("/calendar", s.handleCalendar)
	api.GET("/rss", s.handleRSS)
	api.GET("/quote", s.handleQuote)

	api.GET("/releases", s.handleUpstreamRelease)
	api.GET("/lb-release", s.handleBoardRelease)
	api.GET("/usage/claude", s.handleClaudeUsage)
	api.GET("/usage/openai", s.handleOpenAIUsage)

	api.GET("/stats", s.handleStats)
	api.GET("/stats/stream", s.handleStatsStream)

	api.GET("/templates", s.handleTemplateList)
	api.GET("/templates/:id", s.handleTemplateConfig)
	api.GET("/templates/:id/preview", s.handleTemplatePreview)
	api.POST("/templates/import", s.requirePrivate(), s.handleTemplateImport)
	api.POST("/templates/export", s.requirePrivate(), s.handleTemplateExport)
	api.POST("/templates/:id/screenshot", s.requirePrivate(), s.handleTemplateScreenshot)
	api.DELETE("/templates/:id", s.requirePrivate(), s.handleTemplateDelete)

	api.GET("/todos", s.handleTodosGet)
	api.POST("/todos", s.limitBody(maxTodosBody), s.requirePrivate(), s.handleTodosPost)
	api.GET("/notes", s.handleNotesGet)
	api.POST("/notes", s.limitBody(maxNotesBody), s.requirePrivate(), s.handleNotesPost)

	api.GET("/logs", s.handleLogs)
	api.GET("/system-log", s.handleSystemLog)

	s.Logger.InfoTag("HTTP", "dashboard API routes registered")
}

// limitBody caps the request body before any handler reads it.
func (s *Service) limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}

// requirePrivate refuses config mutations while public mode is on.
func (s *Service) requirePrivate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Gate.PublicMode() {
			httptransport.RespondDenied(c, http.StatusForbidden, "Dashboard is in public mode. Editing is disabled.")
			c.Abort()
		}
	}
}

// requirePrivateDenied is the same gate with the secrets endpoints'
// message.
func (s *Service) requirePrivateDenied() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Gate.PublicMode() {
			httptransport.RespondDenied(c, http.StatusForbidden, "Forbidden in public mode")
			c.Abort()
		}
	}
}

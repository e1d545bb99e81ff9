package webapi

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lobsterboard-server-go/internal/domain/guard"
	"lobsterboard-server-go/internal/domain/ical"
	"lobsterboard-server-go/internal/domain/secrets"
	httptransport "lobsterboard-server-go/internal/transport/http"
)

// resolveFeedURL returns the feed URL for a proxy request. When the
// browser only has the masked value, the real URL is looked up in the
// secret store by widget id.
func (s *Service) resolveFeedURL(c *gin.Context, defaultKey string) string {
	url := c.Query("url")
	if url != "" && url != secrets.Placeholder && url != secrets.Sentinel {
		return url
	}
	widgetID := c.Query("widgetId")
	if widgetID == "" {
		return ""
	}
	key := c.Query("secretKey")
	if key == "" {
		key = defaultKey
	}
	stored, _ := s.Secrets.Get(widgetID, key)
	return stored
}

func respondGuardError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, guard.ErrScheme):
		httptransport.RespondError(c, http.StatusBadRequest, "Only http and https URLs are allowed")
	case stderrors.Is(err, guard.ErrPrivateHost):
		httptransport.RespondError(c, http.StatusBadRequest, "URLs pointing to private/internal addresses are not allowed")
	default:
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid URL")
	}
}

func (s *Service) handleCalendar(c *gin.Context) {
	url := s.resolveFeedURL(c, "icalUrl")
	if url == "" {
		httptransport.RespondError(c, http.StatusBadRequest, "Missing url parameter")
		return
	}

	max := 10
	if v, err := strconv.Atoi(c.Query("max")); err == nil && v > 0 {
		max = v
	}
	if max > 50 {
		max = 50
	}

	if err := guard.CheckURL(url); err != nil {
		respondGuardError(c, err)
		return
	}

	cacheKey := url + "|" + strconv.Itoa(max)
	if events, ok := s.calendarCache.Get(cacheKey); ok {
		c.JSON(http.StatusOK, events)
		return
	}

	body, err := s.Client.Fetch(c.Request.Context(), url)
	if err != nil {
		if stderrors.Is(err, guard.ErrScheme) || stderrors.Is(err, guard.ErrPrivateHost) {
			respondGuardError(c, err)
			return
		}
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	events := ical.Parse(string(body), max, time.Now())
	s.calendarCache.Set(cacheKey, events)
	c.JSON(http.StatusOK, events)
}

func (s *Service) handleRSS(c *gin.Context) {
	url := s.resolveFeedURL(c, "feedUrl")
	if url == "" {
		httptransport.RespondError(c, http.StatusBadRequest, "Missing url parameter")
		return
	}
	if err := guard.CheckURL(url); err != nil {
		respondGuardError(c, err)
		return
	}

	body, err := s.Client.Fetch(c.Request.Context(), url)
	if err != nil {
		if stderrors.Is(err, guard.ErrScheme) || stderrors.Is(err, guard.ErrPrivateHost) {
			respondGuardError(c, err)
			return
		}
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/xml", body)
}

// handleQuote proxies zenquotes.io, which blocks browser CORS. Any
// failure degrades to a canned quote so the widget keeps rendering.
func (s *Service) handleQuote(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	body, err := s.Client.Fetch(ctx, "https://zenquotes.io/api/random")
	if err != nil {
		c.JSON(http.StatusOK, []gin.H{{"q": "Stay hungry, stay foolish.", "a": "Steve Jobs"}})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

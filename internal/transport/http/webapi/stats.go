package webapi

import (
	stderrors "errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"lobsterboard-server-go/internal/domain/stats"
	httptransport "lobsterboard-server-go/internal/transport/http"
)

func (s *Service) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Collector.Snapshot())
}

// handleStatsStream serves the live stats feed over SSE. The current
// snapshot goes out immediately so a fresh client paints without
// waiting for the next tick.
func (s *Service) handleStatsStream(c *gin.Context) {
	ch, cancel, err := s.Hub.Subscribe()
	if err != nil {
		if stderrors.Is(err, stats.ErrTooManySubscribers) {
			httptransport.RespondError(c, http.StatusTooManyRequests, "Too many SSE connections")
			return
		}
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	if !writeEvent(c, s.Collector.Snapshot()) {
		return
	}

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if !writeEvent(c, snap) {
				return
			}
		}
	}
}

func writeEvent(c *gin.Context, snap stats.Snapshot) bool {
	data, err := sonic.Marshal(snap)
	if err != nil {
		return false
	}
	if _, err := c.Writer.Write(append(append([]byte("data: "), data...), '\n', '\n')); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}

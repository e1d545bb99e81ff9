package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lobsterboard-server-go/internal/domain/proxy"
	httptransport "lobsterboard-server-go/internal/transport/http"
	"lobsterboard-server-go/internal/version"
)

func (s *Service) handleUpstreamRelease(c *gin.Context) {
	current := proxy.VersionFromFile(s.Config.Releases.UpstreamVersionFile)
	info, err := s.Releases.Latest(c.Request.Context(), s.Config.Releases.UpstreamRepo, current)
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, "Release check error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Service) handleBoardRelease(c *gin.Context) {
	info, err := s.Releases.Latest(c.Request.Context(), s.Config.Releases.BoardRepo, version.Version)
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, "Release check error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, info)
}

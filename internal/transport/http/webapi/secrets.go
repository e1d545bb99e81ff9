package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httptransport "lobsterboard-server-go/internal/transport/http"
)

func (s *Service) handleSecretsPut(c *gin.Context) {
	var updates map[string]string
	if _, err := bindJSON(c, &updates); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Secrets.Put(c.Param("widgetId"), updates); err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Service) handleSecretsDelete(c *gin.Context) {
	if err := s.Secrets.Delete(c.Param("widgetId"), c.Param("key")); err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

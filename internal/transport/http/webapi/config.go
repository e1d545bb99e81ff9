package webapi

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	httptransport "lobsterboard-server-go/internal/transport/http"
)

// bindJSON decodes a JSON body, distinguishing an oversized body from
// malformed JSON.
func bindJSON(c *gin.Context, v any) (oversized bool, err error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return true, err
		}
		return false, err
	}
	return false, sonic.Unmarshal(data, v)
}

func (s *Service) handleConfigGet(c *gin.Context) {
	cfg := s.ConfigDoc.Load()
	c.JSON(http.StatusOK, s.Secrets.MaskConfig(cfg))
}

func (s *Service) handleConfigPost(c *gin.Context) {
	var cfg map[string]any
	if oversized, err := bindJSON(c, &cfg); err != nil {
		if oversized {
			httptransport.RespondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid JSON in request body: "+err.Error())
		return
	}

	cfg, err := s.Secrets.ExtractSecrets(cfg)
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to write config file: "+err.Error())
		return
	}
	if err := s.ConfigDoc.Save(cfg); err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to write config file: "+err.Error())
		return
	}
	httptransport.RespondSuccess(c, "Config saved")
}

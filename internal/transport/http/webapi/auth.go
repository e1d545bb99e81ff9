package webapi

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lobsterboard-server-go/internal/domain/authgate"
	httptransport "lobsterboard-server-go/internal/transport/http"
)

func (s *Service) handleAuthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Gate.Status())
}

type pinRequest struct {
	PIN        string `json:"pin"`
	CurrentPIN string `json:"currentPin"`
}

func (s *Service) handleSetPIN(c *gin.Context) {
	var req pinRequest
	if _, err := bindJSON(c, &req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	switch err := s.Gate.SetPIN(req.PIN, req.CurrentPIN); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case stderrors.Is(err, authgate.ErrInvalidPIN):
		httptransport.RespondDenied(c, http.StatusBadRequest, "PIN must be 4-6 digits")
	case stderrors.Is(err, authgate.ErrPINRequired), stderrors.Is(err, authgate.ErrWrongPIN):
		httptransport.RespondDenied(c, http.StatusForbidden, "Current PIN is incorrect")
	default:
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Service) handleVerifyPIN(c *gin.Context) {
	var req pinRequest
	if _, err := bindJSON(c, &req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": s.Gate.VerifyPIN(req.PIN)})
}

func (s *Service) handleRemovePIN(c *gin.Context) {
	var req pinRequest
	if _, err := bindJSON(c, &req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	switch err := s.Gate.RemovePIN(req.PIN); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case stderrors.Is(err, authgate.ErrWrongPIN):
		httptransport.RespondDenied(c, http.StatusForbidden, "PIN is incorrect")
	default:
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Service) handleModeGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicMode": s.Gate.PublicMode()})
}

type modeRequest struct {
	PublicMode bool   `json:"publicMode"`
	PIN        string `json:"pin"`
}

func (s *Service) handleModePost(c *gin.Context) {
	var req modeRequest
	if _, err := bindJSON(c, &req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// Toggling the lock itself needs the PIN once one exists.
	if s.Gate.Status().HasPIN && !s.Gate.VerifyPIN(req.PIN) {
		httptransport.RespondDenied(c, http.StatusForbidden, "PIN required")
		return
	}
	if err := s.Gate.SetPublicMode(req.PublicMode); err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "publicMode": req.PublicMode})
}

package webapi

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lobsterboard-server-go/internal/domain/templates"
	httptransport "lobsterboard-server-go/internal/transport/http"
)

func (s *Service) handleTemplateList(c *gin.Context) {
	c.JSON(http.StatusOK, s.Templates.List())
}

func (s *Service) handleTemplateConfig(c *gin.Context) {
	cfg, err := s.Templates.Config(c.Param("id"))
	if err != nil {
		if stderrors.Is(err, templates.ErrNotFound) {
			httptransport.RespondDenied(c, http.StatusNotFound, "Template not found")
			return
		}
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Service) handleTemplatePreview(c *gin.Context) {
	p, err := s.Templates.PreviewPath(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "No preview")
		return
	}
	c.File(p)
}

type importRequest struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
}

func (s *Service) handleTemplateImport(c *gin.Context) {
	var req importRequest
	if _, err := bindJSON(c, &req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := s.Templates.Import(req.ID, req.Mode)
	switch {
	case err == nil:
		httptransport.RespondSuccess(c, msg)
	case stderrors.Is(err, templates.ErrNotFound):
		httptransport.RespondDenied(c, http.StatusNotFound, "Template not found")
	case stderrors.Is(err, templates.ErrInvalidMode):
		httptransport.RespondDenied(c, http.StatusBadRequest, `Invalid mode. Use "replace" or "merge"`)
	default:
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Service) handleTemplateExport(c *gin.Context) {
	var req templates.ExportRequest
	if _, err := bindJSON(c, &req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.Templates.Export(req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"id":      id,
			"message": `Template "` + req.Name + `" exported`,
		})
	case stderrors.Is(err, templates.ErrNameRequired):
		httptransport.RespondDenied(c, http.StatusBadRequest, "Name is required")
	default:
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}

type screenshotRequest struct {
	Data string `json:"data"`
}

func (s *Service) handleTemplateScreenshot(c *gin.Context) {
	var req screenshotRequest
	if _, err := bindJSON(c, &req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	switch err := s.Templates.SaveScreenshot(c.Param("id"), req.Data); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case stderrors.Is(err, templates.ErrNotFound):
		httptransport.RespondDenied(c, http.StatusNotFound, "Template not found")
	case stderrors.Is(err, templates.ErrInvalidImage):
		httptransport.RespondDenied(c, http.StatusBadRequest, "Invalid image data")
	default:
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Service) handleTemplateDelete(c *gin.Context) {
	id := c.Param("id")
	switch err := s.Templates.Delete(id); {
	case err == nil:
		httptransport.RespondSuccess(c, `Template "`+id+`" deleted`)
	case stderrors.Is(err, templates.ErrNotFound):
		httptransport.RespondDenied(c, http.StatusNotFound, "Template not found")
	default:
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}

package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httptransport "lobsterboard-server-go/internal/transport/http"
)

func (s *Service) handleTodosGet(c *gin.Context) {
	c.JSON(http.StatusOK, s.Todos.Load())
}

func (s *Service) handleTodosPost(c *gin.Context) {
	var todos []any
	if oversized, err := bindJSON(c, &todos); err != nil {
		if oversized {
			httptransport.RespondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := s.Todos.Save(todos); err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Service) handleNotesGet(c *gin.Context) {
	c.JSON(http.StatusOK, s.Notes.Load())
}

func (s *Service) handleNotesPost(c *gin.Context) {
	var notes map[string]any
	if oversized, err := bindJSON(c, &notes); err != nil {
		if oversized {
			httptransport.RespondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		httptransport.RespondError(c, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := s.Notes.Save(notes); err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

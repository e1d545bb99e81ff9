package httptransport

import "github.com/gin-gonic/gin"

// StatusResponse is the {status, message} envelope most write
// endpoints answer with.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// RespondError sends the {status:"error", message} failure envelope.
func RespondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, StatusResponse{Status: "error", Message: message})
}

// RespondSuccess sends the {status:"success", message} envelope.
func RespondSuccess(c *gin.Context, message string) {
	c.JSON(200, StatusResponse{Status: "success", Message: message})
}

// RespondDenied sends the bare {error} shape used by the auth and
// secrets endpoints.
func RespondDenied(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"error": message})
}

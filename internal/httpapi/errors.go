package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
)

// errorResponse is the JSON error body for every non-2xx response.
type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// writeError maps a domain error to its HTTP status and writes the
// JSON error body. Non-domain errors are treated as infrastructure
// failures.
func writeError(c *gin.Context, err error) {
	var de *domainerr.Error
	if !domainerr.As(err, &de) {
		c.JSON(http.StatusInternalServerError, errorResponse{
			ErrorCode: "internal_error",
			Message:   err.Error(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch de.Kind {
	case domainerr.KindValidation:
		status = http.StatusBadRequest
	case domainerr.KindNotFound:
		status = http.StatusNotFound
	case domainerr.KindConflict:
		status = http.StatusConflict
	case domainerr.KindAuthorization:
		status = http.StatusForbidden
	case domainerr.KindInfrastructure:
		status = http.StatusInternalServerError
	}

	c.JSON(status, errorResponse{ErrorCode: de.Code, Message: de.Message})
}

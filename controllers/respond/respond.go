package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adilind/coffee-shop-api/services"
)

// Error maps the service error taxonomy onto HTTP statuses and emits the
// usual {"error": ..., "code": ...} body.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindConflict:
		status = http.StatusConflict
	case services.KindUpstream:
		status = http.StatusServiceUnavailable
	}

	body := gin.H{"error": err.Error()}
	if code := services.CodeOf(err); code != "" {
		body["code"] = code
	}
	c.JSON(status, body)
}

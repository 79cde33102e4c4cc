package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
)

// Response represents a standard API response format
type Response struct {
	Success bool          `json:"success"`
	Data    interface{}   `json:"data"`
	Error   *apperr.Error `json:"error"`
}

// OK writes a success envelope with the given status code.
func OK(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{Success: true, Data: data})
}

// AbortWithError renders a typed error through the standard envelope. Untyped
// errors surface as a generic 500 so internals never leak to clients.
func AbortWithError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr == nil {
		appErr = &apperr.Error{
			StatusCode: http.StatusInternalServerError,
			MessageKey: "errors.internal",
		}
	}
	c.AbortWithStatusJSON(appErr.StatusCode, Response{Success: false, Error: appErr})
}

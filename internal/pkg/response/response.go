package response

import (
	"doorstep/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the envelope for a service error using the shared taxonomy.
func FromError(c *gin.Context, err error) {
	code := string(apperr.KindOf(err))
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	_ = c.Error(err)
	Error(c, apperr.HTTPStatus(err), code, apperr.PublicMessage(err))
}

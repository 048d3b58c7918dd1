package utils

import (
	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, code int, message string, err error) {
	response := APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(code, response)
}

// ErrorResponseWithDetails carries a diagnostic cause alongside the
// user-facing message, for failures worth surfacing (e.g. which mirror
// failed last before the pool was exhausted).
func ErrorResponseWithDetails(c *gin.Context, code int, message, details string) {
	c.JSON(code, APIResponse{
		Success: false,
		Message: message,
		Details: details,
	})
}

// Package resp is the JSON envelope every endpoint answers with.
package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Error answers with code both as HTTP status and envelope code and
// aborts the handler chain.
func Error(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Body{
		Code:    code,
		Message: message,
	})
}

package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	FlashTypeSuccess = "success"
	FlashTypeError   = "error"
	FlashTypeInfo    = "info"
)

// Flash is a one-shot message for the client to show after following Redirect
type Flash struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type FlashResponse struct {
	Flash    Flash       `json:"flash"`
	Redirect string      `json:"redirect"`
	Error    string      `json:"error,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// FlashError reports a user-facing failure with a redirect instruction
func FlashError(c *gin.Context, statusCode int, errorCode, message, redirect string) {
	c.AbortWithStatusJSON(statusCode, FlashResponse{
		Flash:    Flash{Type: FlashTypeError, Message: message},
		Redirect: redirect,
		Error:    errorCode,
	})
}

// FlashSuccess reports success with a redirect instruction and optional payload
func FlashSuccess(c *gin.Context, message, redirect string, data interface{}) {
	c.JSON(http.StatusOK, FlashResponse{
		Flash:    Flash{Type: FlashTypeSuccess, Message: message},
		Redirect: redirect,
		Data:     data,
	})
}

// FlashInfo is a neutral notice, such as being moved to another page
func FlashInfo(c *gin.Context, message, redirect string) {
	c.JSON(http.StatusOK, FlashResponse{
		Flash:    Flash{Type: FlashTypeInfo, Message: message},
		Redirect: redirect,
	})
}

package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorJSON writes a failure envelope with an explicit status code.
func ErrorJSON(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
	})
}

// AppErrorResponse maps a service error to its HTTP status and envelope. The
// error kind travels in "code" so clients never have to parse messages.
func AppErrorResponse(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Internalf(err, "internal server error")
	}

	c.JSON(HTTPStatus(appErr.Kind), APIResponse{
		Success: false,
		Message: appErr.Message,
		Code:    string(appErr.Kind),
		Reason:  appErr.Reason,
	})
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorJSON(c, http.StatusBadRequest, message)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorJSON(c, http.StatusUnauthorized, message)
}

func ForbiddenResponse(c *gin.Context, message string) {
	ErrorJSON(c, http.StatusForbidden, message)
}

package response

import (
	"errors"
	"fmt"
	"net/http"

	"fluxapay/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error envelope: a bare message, nothing else.
// The HTTP status carries the error kind.
type ErrorResponse struct {
	Message string `json:"message"`
}

// OK sends a 200 response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Created sends a 201 response with the given payload.
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

// CSV sends CSV content as a file attachment.
func CSV(c *gin.Context, filename string, content string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", []byte(content))
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500 with a generic message.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{Message: appErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Server error"})
}

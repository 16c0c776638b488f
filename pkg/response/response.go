// Package response writes the API envelope: {"message": ..., ...fields}.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventboard/backend/pkg/apperrors"
)

// MessageSuccess is the message of every successful response.
const MessageSuccess = "success"

// JSON sends status with message merged into fields.
func JSON(c *gin.Context, status int, message string, fields gin.H) {
	body := gin.H{"message": message}
	for k, v := range fields {
		if k == "message" {
			continue
		}
		body[k] = v
	}
	c.JSON(status, body)
}

// OK sends 200 with the success message and fields.
func OK(c *gin.Context, fields gin.H) {
	JSON(c, http.StatusOK, MessageSuccess, fields)
}

// Created sends 201 with the success message and fields.
func Created(c *gin.Context, fields gin.H) {
	JSON(c, http.StatusCreated, MessageSuccess, fields)
}

// BadRequest sends 400.
func BadRequest(c *gin.Context, msg string) {
	JSON(c, http.StatusBadRequest, msg, nil)
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, msg string) {
	JSON(c, http.StatusUnauthorized, msg, nil)
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, msg string) {
	JSON(c, http.StatusForbidden, msg, nil)
}

// NotFound sends 404.
func NotFound(c *gin.Context, msg string) {
	JSON(c, http.StatusNotFound, msg, nil)
}

// Conflict sends 409.
func Conflict(c *gin.Context, msg string) {
	JSON(c, http.StatusConflict, msg, nil)
}

// Internal sends 500.
func Internal(c *gin.Context, msg string) {
	JSON(c, http.StatusInternalServerError, msg, nil)
}

// NotImplemented sends 501.
func NotImplemented(c *gin.Context, msg string) {
	JSON(c, http.StatusNotImplemented, msg, nil)
}

// Error maps err onto a status and sends it. Unexpected errors are logged and
// answered with a generic message.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Message)
	case errors.Is(err, apperrors.ErrNotFound):
		NotFound(c, "not found")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		Unauthorized(c, apperrors.ErrInvalidCredentials.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		Unauthorized(c, apperrors.ErrUnauthorized.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		Forbidden(c, apperrors.ErrForbidden.Error())
	case errors.Is(err, apperrors.ErrUsernameTaken):
		Conflict(c, apperrors.ErrUsernameTaken.Error())
	case errors.Is(err, apperrors.ErrUnimplemented):
		NotImplemented(c, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		Internal(c, "internal server error")
	}
}

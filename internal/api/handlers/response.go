package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greendrake/estates/internal/geocode"
	"greendrake/estates/internal/services"
	"greendrake/estates/internal/validation"
)

// statusClientClosedRequest is written when the client went away before the handler finished.
const statusClientClosedRequest = 499

// Response is the envelope of every API answer. Error is a string, or a list of strings for validation failures.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondFail(c *gin.Context, status int, msg any) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}

// respondError maps service errors onto statuses. Anything unrecognised is logged and reported as a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verrs     validation.Errors
		dup       *services.DuplicateFieldError
		forbidden *services.ForbiddenError
		upload    *services.UploadFailedError
	)

	switch {
	case errors.As(err, &verrs):
		respondFail(c, http.StatusBadRequest, verrs.Messages())
	case errors.As(err, &dup):
		respondFail(c, http.StatusBadRequest, dup.Error())
	case errors.Is(err, services.ErrBadRequest):
		respondFail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthorized):
		respondFail(c, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		respondFail(c, http.StatusForbidden, forbidden.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, geocode.ErrNoResult):
		respondFail(c, http.StatusNotFound, err.Error())
	case errors.As(err, &upload):
		_ = c.Error(err)
		respondFail(c, upload.HTTPStatus(), upload.Error())
	case errors.Is(err, geocode.ErrUnavailable):
		_ = c.Error(err)
		respondFail(c, http.StatusBadGateway, geocode.ErrUnavailable.Error())
	case errors.Is(err, context.Canceled):
		logger.Debug("request cancelled", zap.String("path", c.Request.URL.Path))
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		_ = c.Error(err)
		logger.Error("unhandled error", zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path), zap.Error(err))
		respondFail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// bindJSON decodes the body into dst, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID parses an ObjectID route parameter. A malformed id cannot name a document, so it answers 404.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		respondFail(c, http.StatusNotFound, services.ErrNotFound.Error())
		return primitive.NilObjectID, false
	}
	return id, true
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/server/http/dto"
	"github.com/polkiloo/marketplace/internal/server/http/middleware"
)

// CurrentRequester extracts authenticated caller from context.
func CurrentRequester(c *gin.Context) model.Requester {
	val, ok := c.Get(middleware.RequesterContextKey)
	if !ok {
		return model.Requester{}
	}
	requester, _ := val.(model.Requester)
	return requester
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, domainErrors.NewValidation("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body: " + err.Error()})
}

// respondError maps domain error kinds to HTTP answers. Unknown errors are
// attached to the context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	switch {
	case errors.Is(err, domainErrors.ErrValidation):
		return http.StatusBadRequest, dto.ErrorResponse{Error: "validation failed", Details: fieldErrors(err)}
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Error: err.Error()}
	case errors.Is(err, domainErrors.ErrForbidden):
		return http.StatusForbidden, dto.ErrorResponse{Error: "forbidden"}
	case errors.Is(err, domainErrors.ErrAlreadyPaid),
		errors.Is(err, domainErrors.ErrInvalidState),
		errors.Is(err, domainErrors.ErrConflict),
		errors.Is(err, domainErrors.ErrAlreadyExists):
		return http.StatusConflict, dto.ErrorResponse{Error: err.Error()}
	case errors.Is(err, domainErrors.ErrInsufficientStock),
		errors.Is(err, domainErrors.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()}
	case errors.Is(err, domainErrors.ErrInsufficientPoints):
		return http.StatusPaymentRequired, dto.ErrorResponse{Error: err.Error()}
	case errors.Is(err, domainErrors.ErrReceiptGeneration):
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "receipt generation failed"}
	default:
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"}
	}
}

// fieldErrors flattens joined and wrapped validation errors.
func fieldErrors(err error) []dto.FieldError {
	var out []dto.FieldError
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if v, ok := err.(*domainErrors.ValidationError); ok {
			out = append(out, dto.FieldError{Field: v.Field, Reason: v.Reason, MissingIDs: v.MissingIDs})
			return
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				walk(e)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

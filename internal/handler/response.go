package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/scrap-exchange/internal/middleware"
	"github.com/shinyyama/scrap-exchange/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func currentUID(c echo.Context) string {
	uid, _ := c.Get(middleware.UIDKey).(string)
	return uid
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", msg))
}

// writeServiceError maps service sentinels to HTTP responses.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, NewErrorResponse("already_reserved", "listing is already reserved"))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "not found"))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case errors.Is(err, service.ErrProofRequired):
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("proof_required", "payment proof is required"))
	case errors.Is(err, service.ErrPaymentConfigMissing):
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("payment_config_missing", "seller has no UPI handle configured"))
	case errors.Is(err, service.ErrSelfPurchase):
		return badRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return badRequest(c, strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": "))
	case errors.Is(err, service.ErrStoreUnavailable):
		log.Printf("[http] path=%s stage=store_unavailable err=%v", c.Path(), err)
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("store_unavailable", "temporarily unavailable, retry later"))
	default:
		log.Printf("[http] path=%s stage=internal err=%v", c.Path(), err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "internal error"))
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/scrap-exchange/internal/service"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantBody string
	}{
		{service.ErrAlreadyReserved, http.StatusConflict, "already_reserved"},
		{service.ErrNotFound, http.StatusNotFound, "not_found"},
		{service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{service.ErrProofRequired, http.StatusUnprocessableEntity, "proof_required"},
		{service.ErrPaymentConfigMissing, http.StatusUnprocessableEntity, "payment_config_missing"},
		{service.ErrSelfPurchase, http.StatusBadRequest, "bad_request"},
		{fmt.Errorf("%w: title is required", service.ErrInvalidInput), http.StatusBadRequest, "bad_request"},
		{fmt.Errorf("%w: connection refused", service.ErrStoreUnavailable), http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if err := writeServiceError(c, tt.err); err != nil {
				t.Fatalf("write: %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("code=%d want %d", rec.Code, tt.wantCode)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantBody {
				t.Fatalf("error code=%s want %s", body.Error.Code, tt.wantBody)
			}
		})
	}
}

func TestInvalidInputMessageIsTrimmed(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = writeServiceError(c, fmt.Errorf("%w: weight must be positive", service.ErrInvalidInput))
	var body ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error.Message != "weight must be positive" {
		t.Fatalf("message=%q", body.Error.Message)
	}
}

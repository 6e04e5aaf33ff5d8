package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/scrap-exchange/internal/service"
)

type PayeeHandler struct {
	svc service.PayeeService
}

func NewPayeeHandler(svc service.PayeeService) *PayeeHandler {
	return &PayeeHandler{svc: svc}
}

type payeeResponse struct {
	UPIHandle string `json:"upiHandle"`
}

func (h *PayeeHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	p, err := h.svc.Get(c.Request().Context(), uid)
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusOK, payeeResponse{})
	}
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, payeeResponse{UPIHandle: p.UPIHandle})
}

func (h *PayeeHandler) Put(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body payeeResponse
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.svc.SetUPIHandle(c.Request().Context(), uid, body.UPIHandle)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, payeeResponse{UPIHandle: p.UPIHandle})
}

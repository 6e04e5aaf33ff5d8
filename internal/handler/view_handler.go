package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/scrap-exchange/internal/media"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/service"
)

type ViewHandler struct {
	svc    service.ViewService
	images media.Resolver
}

func NewViewHandler(svc service.ViewService, images media.Resolver) *ViewHandler {
	if images == nil {
		images = media.Passthrough{}
	}
	return &ViewHandler{svc: svc, images: images}
}

type listingWithTransactionResponse struct {
	Listing     ListingResponse     `json:"listing"`
	Transaction TransactionResponse `json:"transaction"`
}

func parseWeight(c echo.Context, name string) (*float64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}

func (h *ViewHandler) Marketplace(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	minW, ok := parseWeight(c, "minWeight")
	if !ok {
		return badRequest(c, "invalid minWeight")
	}
	maxW, ok := parseWeight(c, "maxWeight")
	if !ok {
		return badRequest(c, "invalid maxWeight")
	}
	list, err := h.svc.Marketplace(c.Request().Context(), uid, service.ListingFilter{
		Category:  c.QueryParam("category"),
		Search:    c.QueryParam("q"),
		MinWeight: minW,
		MaxWeight: maxW,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	resp := make([]ListingResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toListingResponse(c, h.images, &list[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"listings": resp})
}

func (h *ViewHandler) Pending(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.Pending(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"purchases": h.pairs(c, list)})
}

func (h *ViewHandler) Completed(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.Completed(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"purchases": h.pairs(c, list)})
}

func (h *ViewHandler) pairs(c echo.Context, list []service.ListingWithTransaction) []listingWithTransactionResponse {
	resp := make([]listingWithTransactionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, listingWithTransactionResponse{
			Listing:     toListingResponse(c, h.images, &list[i].Listing),
			Transaction: toTransactionResponse(&list[i].Transaction),
		})
	}
	return resp
}

// History lists the caller's transactions as buyer or seller. Optional
// query: status, limit (max 50).
func (h *ViewHandler) History(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var status *model.TransactionStatus
	if raw := c.QueryParam("status"); raw != "" {
		st := model.TransactionStatus(raw)
		status = &st
	}
	limit := 50
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			limit = lParsed
		}
	}
	list, err := h.svc.History(c.Request().Context(), uid, status, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"transactions": h.pairs(c, list)})
}

func (h *ViewHandler) ListingTransactions(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListingTransactions(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	resp := make([]TransactionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toTransactionResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"transactions": resp})
}

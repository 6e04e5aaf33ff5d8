package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/scrap-exchange/internal/media"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/service"
	"github.com/shopspring/decimal"
)

type ListingHandler struct {
	svc    service.ListingService
	images media.Resolver
}

func NewListingHandler(svc service.ListingService, images media.Resolver) *ListingHandler {
	if images == nil {
		images = media.Passthrough{}
	}
	return &ListingHandler{svc: svc, images: images}
}

type ListingRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	WeightKg      float64         `json:"weightKg"`
	ExpectedPrice decimal.Decimal `json:"expectedPrice"`
	ImageRef      *string         `json:"imageRef"`
	Location      *string         `json:"location"`
	LocationLat   *float64        `json:"locationLat"`
	LocationLng   *float64        `json:"locationLng"`
}

func (r ListingRequest) toInput() service.ListingInput {
	return service.ListingInput{
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		WeightKg:      r.WeightKg,
		ExpectedPrice: r.ExpectedPrice,
		ImageRef:      r.ImageRef,
		Location:      r.Location,
		LocationLat:   r.LocationLat,
		LocationLng:   r.LocationLng,
	}
}

type ListingResponse struct {
	ID            string   `json:"id"`
	SellerID      string   `json:"sellerId"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	WeightKg      float64  `json:"weightKg"`
	ExpectedPrice string   `json:"expectedPrice"`
	ActualPrice   *string  `json:"actualPrice,omitempty"`
	Price         string   `json:"price"`
	ImageURL      *string  `json:"imageUrl,omitempty"`
	Location      *string  `json:"location,omitempty"`
	LocationLat   *float64 `json:"locationLat,omitempty"`
	LocationLng   *float64 `json:"locationLng,omitempty"`
	Status        string   `json:"status"`
	CO2SavedKg    *float64 `json:"co2SavedKg,omitempty"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

func toListingResponse(c echo.Context, images media.Resolver, l *model.Listing) ListingResponse {
	var actual *string
	if l.ActualPrice.Valid {
		v := l.ActualPrice.Decimal.StringFixed(2)
		actual = &v
	}
	var imageURL *string
	if l.ImageRef != nil && *l.ImageRef != "" {
		u, err := images.Resolve(c.Request().Context(), *l.ImageRef)
		if err != nil {
			log.Printf("[media] listing=%s stage=resolve_fail err=%v", l.ID, err)
		} else {
			imageURL = &u
		}
	}
	return ListingResponse{
		ID:            l.ID,
		SellerID:      l.SellerID,
		Title:         l.Title,
		Description:   l.Description,
		Category:      l.Category,
		WeightKg:      l.WeightKg,
		ExpectedPrice: l.ExpectedPrice.StringFixed(2),
		ActualPrice:   actual,
		Price:         l.Price().StringFixed(2),
		ImageURL:      imageURL,
		Location:      l.Location,
		LocationLat:   l.LocationLat,
		LocationLng:   l.LocationLng,
		Status:        string(l.Status),
		CO2SavedKg:    l.CO2SavedKg,
		CreatedAt:     l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     l.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *ListingHandler) toResponses(c echo.Context, list []model.Listing) []ListingResponse {
	resp := make([]ListingResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toListingResponse(c, h.images, &list[i]))
	}
	return resp
}

func (h *ListingHandler) Create(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req ListingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	l, err := h.svc.Create(c.Request().Context(), uid, req.toInput())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toListingResponse(c, h.images, l))
}

func (h *ListingHandler) Update(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req ListingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	l, err := h.svc.Update(c.Request().Context(), uid, c.Param("id"), req.toInput())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(c, h.images, l))
}

func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(c, h.images, l))
}

type SellerStatsResponse struct {
	Total      int    `json:"total"`
	Available  int    `json:"available"`
	Pending    int    `json:"pending"`
	Sold       int    `json:"sold"`
	TotalValue string `json:"totalValue"`
}

// ListMine returns the seller dashboard. Reading it also kicks an expiration sweep.
func (h *ListingHandler) ListMine(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	dash, err := h.svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"listings": h.toResponses(c, dash.Listings),
		"stats": SellerStatsResponse{
			Total:      dash.Stats.Total,
			Available:  dash.Stats.Available,
			Pending:    dash.Stats.Pending,
			Sold:       dash.Stats.Sold,
			TotalValue: dash.Stats.TotalValue.StringFixed(2),
		},
	})
}

func (h *ListingHandler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	byStatus := make(map[string]int64, len(st.Listings))
	for k, v := range st.Listings {
		byStatus[string(k)] = v
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"listings":         byStatus,
		"transactions":     st.Transactions,
		"completedRevenue": st.CompletedRevenue.StringFixed(2),
	})
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/service"
)

type PurchaseHandler struct {
	purchases service.PurchaseService
	payments  service.PaymentService
}

func NewPurchaseHandler(purchases service.PurchaseService, payments service.PaymentService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, payments: payments}
}

type TransactionResponse struct {
	ID               string  `json:"id"`
	ListingID        string  `json:"listingId"`
	BuyerID          string  `json:"buyerId"`
	SellerID         string  `json:"sellerId"`
	Amount           string  `json:"amount"`
	PaymentMethod    string  `json:"paymentMethod"`
	Status           string  `json:"status"`
	PaymentReference *string `json:"paymentReference,omitempty"`
	ClosedAt         *string `json:"closedAt,omitempty"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

func toTransactionResponse(t *model.Transaction) TransactionResponse {
	var closedAt *string
	if t.ClosedAt != nil {
		val := t.ClosedAt.Format(time.RFC3339)
		closedAt = &val
	}
	return TransactionResponse{
		ID:               t.ID,
		ListingID:        t.ListingID,
		BuyerID:          t.BuyerID,
		SellerID:         t.SellerID,
		Amount:           t.Amount.StringFixed(2),
		PaymentMethod:    string(t.PaymentMethod),
		Status:           string(t.Status),
		PaymentReference: t.PaymentReference,
		ClosedAt:         closedAt,
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        t.UpdatedAt.Format(time.RFC3339),
	}
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

func (h *PurchaseHandler) Initiate(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body paymentMethodRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.purchases.Initiate(c.Request().Context(), c.Param("id"), uid, model.PaymentMethod(body.PaymentMethod))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toTransactionResponse(t))
}

func (h *PurchaseHandler) Cancel(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	t, err := h.purchases.Cancel(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toTransactionResponse(t))
}

func (h *PurchaseHandler) ChangePaymentMethod(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body paymentMethodRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.purchases.ChangePaymentMethod(c.Request().Context(), c.Param("id"), uid, model.PaymentMethod(body.PaymentMethod))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toTransactionResponse(t))
}

// Complete finalizes a pending transaction. UPI payments need a reference,
// card payments a confirmation code.
func (h *PurchaseHandler) Complete(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body struct {
		Reference        string `json:"reference"`
		ConfirmationCode string `json:"confirmationCode"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.payments.Complete(c.Request().Context(), c.Param("id"), uid, service.Proof{
		UPIReference:     body.Reference,
		ConfirmationCode: body.ConfirmationCode,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toTransactionResponse(t))
}

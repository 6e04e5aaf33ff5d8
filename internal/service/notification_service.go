package service

import (
	"context"
	"fmt"
	"log"

	"github.com/shinyyama/scrap-exchange/internal/event"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
)

type NotificationService interface {
	Notify(ctx context.Context, userID, typ, title, body string, listingID, transactionID *string)
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userID string) error
	// OnEvent turns committed purchase transitions into user notifications.
	OnEvent(ctx context.Context, ev event.Event)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// Notify is best-effort; it logs errors but does not return them to avoid breaking main flows.
func (s *notificationService) Notify(ctx context.Context, userID, typ, title, body string, listingID, transactionID *string) {
	if userID == "" || typ == "" {
		return
	}
	n := &model.Notification{
		UserID:        userID,
		Type:          typ,
		Title:         title,
		Body:          body,
		ListingID:     listingID,
		TransactionID: transactionID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("[notify] user=%s type=%s stage=create_fail err=%v", userID, typ, err)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	cnt, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return list, 0, storeErr(err)
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return storeErr(s.repo.MarkAllRead(ctx, userID))
}

func (s *notificationService) OnEvent(ctx context.Context, ev event.Event) {
	listingID := strPtrOrNil(ev.ListingID)
	txID := strPtrOrNil(ev.TransactionID)
	amount := ev.Amount.StringFixed(2)
	switch ev.Type {
	case event.PurchaseInitiated:
		s.Notify(ctx, ev.SellerID, string(ev.Type), "New purchase",
			fmt.Sprintf("A buyer reserved your listing for %s (%s). Waiting for payment.", amount, ev.PaymentMethod), listingID, txID)
	case event.PaymentCompleted:
		s.Notify(ctx, ev.SellerID, string(ev.Type), "Payment completed",
			fmt.Sprintf("Payment of %s was received for your listing.", amount), listingID, txID)
	case event.PurchaseCancelled:
		s.Notify(ctx, ev.SellerID, string(ev.Type), "Purchase cancelled",
			"The buyer cancelled. Your listing is available again.", listingID, txID)
	case event.PurchaseExpired:
		s.Notify(ctx, ev.SellerID, string(ev.Type), "Purchase expired",
			"The buyer did not complete payment in time. Your listing is available again.", listingID, txID)
		s.Notify(ctx, ev.BuyerID, string(ev.Type), "Purchase expired",
			"Your reservation expired before payment was completed.", listingID, txID)
	}
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/scrap-exchange/internal/event"
	"github.com/shinyyama/scrap-exchange/internal/metrics"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
	"gorm.io/gorm"
)

type PurchaseService interface {
	Initiate(ctx context.Context, listingID, buyerID string, method model.PaymentMethod) (*model.Transaction, error)
	Cancel(ctx context.Context, listingID, buyerID string) (*model.Transaction, error)
	ChangePaymentMethod(ctx context.Context, listingID, buyerID string, method model.PaymentMethod) (*model.Transaction, error)
}

type PurchaseOptions struct {
	// ResetPriceOnRelease clears actual_price when a purchase is cancelled.
	ResetPriceOnRelease bool
	Now                 func() time.Time
}

type purchaseService struct {
	listings   repository.ListingRepository
	txs        repository.TransactionRepository
	transactor repository.Transactor
	payees     PayeeResolver
	pub        event.Publisher
	resetPrice bool
	now        func() time.Time
}

func NewPurchaseService(
	listings repository.ListingRepository,
	txs repository.TransactionRepository,
	transactor repository.Transactor,
	payees PayeeResolver,
	pub event.Publisher,
	opts PurchaseOptions,
) PurchaseService {
	if pub == nil {
		pub = event.Discard
	}
	return &purchaseService{
		listings:   listings,
		txs:        txs,
		transactor: transactor,
		payees:     payees,
		pub:        pub,
		resetPrice: opts.ResetPriceOnRelease,
		now:        clockOrDefault(opts.Now),
	}
}

func (s *purchaseService) Initiate(ctx context.Context, listingID, buyerID string, method model.PaymentMethod) (*model.Transaction, error) {
	t, err := s.initiate(ctx, listingID, buyerID, method)
	switch {
	case err == nil:
		metrics.PurchaseAttempts.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrAlreadyReserved):
		metrics.PurchaseAttempts.WithLabelValues("already_reserved").Inc()
	case errors.Is(err, ErrPaymentConfigMissing):
		metrics.PurchaseAttempts.WithLabelValues("payment_config_missing").Inc()
	default:
		metrics.PurchaseAttempts.WithLabelValues("error").Inc()
	}
	return t, err
}

func (s *purchaseService) initiate(ctx context.Context, listingID, buyerID string, method model.PaymentMethod) (*model.Transaction, error) {
	if buyerID == "" {
		return nil, invalid("buyer is required")
	}
	if !method.Valid() {
		return nil, invalid("payment method must be cash, upi or card")
	}
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, storeErr(err)
	}
	if listing.SellerID == buyerID {
		return nil, ErrSelfPurchase
	}
	if listing.Status != model.ListingStatusAvailable {
		return nil, ErrAlreadyReserved
	}
	if method == model.PaymentMethodUPI {
		if !listing.Price().IsPositive() {
			return nil, ErrPaymentConfigMissing
		}
		if _, err := s.payees.ResolveUPIHandle(ctx, listing.SellerID); err != nil {
			return nil, err
		}
	}

	t := &model.Transaction{
		ID:            uuid.NewString(),
		ListingID:     listing.ID,
		BuyerID:       buyerID,
		SellerID:      listing.SellerID,
		PaymentMethod: method,
		Status:        model.TransactionStatusPending,
		CreatedAt:     s.now(),
	}
	err = s.transactor.InTx(ctx, func(listings repository.ListingRepository, txs repository.TransactionRepository) error {
		existing, err := txs.FindActiveByListing(ctx, listing.ID)
		if err == nil && existing != nil {
			return ErrAlreadyReserved
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		n, err := listings.ReserveIfAvailable(ctx, listing.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAlreadyReserved
		}
		// amount follows the price pinned by the reservation, not the
		// pre-transaction read, so a concurrent seller edit cannot split them
		reserved, err := listings.FindByID(ctx, listing.ID)
		if err != nil {
			return err
		}
		t.Amount = reserved.Price()
		return txs.Create(ctx, t)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.pub.Publish(event.Event{
		Type:          event.PurchaseInitiated,
		ListingID:     t.ListingID,
		TransactionID: t.ID,
		BuyerID:       t.BuyerID,
		SellerID:      t.SellerID,
		Amount:        t.Amount,
		PaymentMethod: string(t.PaymentMethod),
		At:            t.CreatedAt,
	})
	return t, nil
}

func (s *purchaseService) Cancel(ctx context.Context, listingID, buyerID string) (*model.Transaction, error) {
	if buyerID == "" {
		return nil, invalid("buyer is required")
	}
	t, err := s.txs.FindPendingByListingAndBuyer(ctx, listingID, buyerID)
	if err != nil {
		return nil, storeErr(err)
	}
	now := s.now()
	if err := closePending(ctx, s.transactor, t, model.TransactionStatusCancelled, now, s.resetPrice); err != nil {
		return nil, err
	}
	t.Status = model.TransactionStatusCancelled
	t.ClosedAt = &now

	s.pub.Publish(event.Event{
		Type:          event.PurchaseCancelled,
		ListingID:     t.ListingID,
		TransactionID: t.ID,
		BuyerID:       t.BuyerID,
		SellerID:      t.SellerID,
		Amount:        t.Amount,
		PaymentMethod: string(t.PaymentMethod),
		At:            now,
	})
	return t, nil
}

func (s *purchaseService) ChangePaymentMethod(ctx context.Context, listingID, buyerID string, method model.PaymentMethod) (*model.Transaction, error) {
	if buyerID == "" {
		return nil, invalid("buyer is required")
	}
	if !method.Valid() {
		return nil, invalid("payment method must be cash, upi or card")
	}
	t, err := s.txs.FindPendingByListingAndBuyer(ctx, listingID, buyerID)
	if err != nil {
		return nil, storeErr(err)
	}
	if t.PaymentMethod == method {
		return t, nil
	}
	if method == model.PaymentMethodUPI {
		if !t.Amount.IsPositive() {
			return nil, ErrPaymentConfigMissing
		}
		if _, err := s.payees.ResolveUPIHandle(ctx, t.SellerID); err != nil {
			return nil, err
		}
	}
	n, err := s.txs.SetMethodIfPending(ctx, t.ID, method)
	if err != nil {
		return nil, storeErr(err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	t.PaymentMethod = method
	return t, nil
}

// closePending is the shared revert path of buyer cancellation and expiry.
// It reports ErrNotFound when the transaction already left pending.
func closePending(ctx context.Context, transactor repository.Transactor, t *model.Transaction, status model.TransactionStatus, at time.Time, resetPrice bool) error {
	err := transactor.InTx(ctx, func(listings repository.ListingRepository, txs repository.TransactionRepository) error {
		n, err := txs.CloseIfPending(ctx, t.ID, status, at)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		released, err := listings.ReleaseIfPending(ctx, t.ListingID, resetPrice)
		if err != nil {
			return err
		}
		if released == 0 {
			log.Printf("[purchase] listing=%s tx=%s stage=release_skipped reason=listing_not_pending", t.ListingID, t.ID)
		}
		return nil
	})
	return storeErr(err)
}

func clockOrDefault(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}

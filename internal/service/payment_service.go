package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/scrap-exchange/internal/event"
	"github.com/shinyyama/scrap-exchange/internal/metrics"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
)

// Proof is the buyer-entered evidence of payment. Which field is required
// depends on the transaction's payment method.
type Proof struct {
	UPIReference     string
	ConfirmationCode string
}

// reference returns the value to record for method, or ErrProofRequired.
func (p Proof) reference(method model.PaymentMethod) (*string, error) {
	var v string
	switch method {
	case model.PaymentMethodCash:
		return nil, nil
	case model.PaymentMethodUPI:
		v = strings.TrimSpace(p.UPIReference)
	case model.PaymentMethodCard:
		v = strings.TrimSpace(p.ConfirmationCode)
	default:
		return nil, invalid("unknown payment method")
	}
	if v == "" {
		return nil, ErrProofRequired
	}
	return &v, nil
}

type PaymentService interface {
	Complete(ctx context.Context, transactionID, buyerID string, proof Proof) (*model.Transaction, error)
}

type paymentService struct {
	txs        repository.TransactionRepository
	transactor repository.Transactor
	pub        event.Publisher
	now        func() time.Time
}

func NewPaymentService(txs repository.TransactionRepository, transactor repository.Transactor, pub event.Publisher, now func() time.Time) PaymentService {
	if pub == nil {
		pub = event.Discard
	}
	return &paymentService{txs: txs, transactor: transactor, pub: pub, now: clockOrDefault(now)}
}

func (s *paymentService) Complete(ctx context.Context, transactionID, buyerID string, proof Proof) (*model.Transaction, error) {
	if buyerID == "" {
		return nil, invalid("buyer is required")
	}
	t, err := s.txs.FindByID(ctx, transactionID)
	if err != nil {
		return nil, storeErr(err)
	}
	// someone else's or already closed transactions look the same to the caller
	if t.BuyerID != buyerID || t.Status != model.TransactionStatusPending {
		return nil, ErrNotFound
	}
	ref, err := proof.reference(t.PaymentMethod)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.transactor.InTx(ctx, func(listings repository.ListingRepository, txs repository.TransactionRepository) error {
		n, err := txs.CompleteIfPending(ctx, t.ID, buyerID, ref, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		sold, err := listings.MarkSoldIfPending(ctx, t.ListingID)
		if err != nil {
			return err
		}
		if sold == 0 {
			log.Printf("[payment] listing=%s tx=%s stage=mark_sold_skipped reason=listing_not_pending", t.ListingID, t.ID)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	t.Status = model.TransactionStatusCompleted
	t.PaymentReference = ref
	t.ClosedAt = &now

	metrics.PaymentsCompleted.WithLabelValues(string(t.PaymentMethod)).Inc()
	s.pub.Publish(event.Event{
		Type:          event.PaymentCompleted,
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

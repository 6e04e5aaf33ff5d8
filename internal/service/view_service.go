package service

import (
	"context"

	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
)

type ListingWithTransaction struct {
	Listing     model.Listing
	Transaction model.Transaction
}

// ViewService serves the buyer-facing read projections. The three views are
// disjoint for a given buyer.
type ViewService interface {
	Marketplace(ctx context.Context, buyerID string, f ListingFilter) ([]model.Listing, error)
	Pending(ctx context.Context, buyerID string) ([]ListingWithTransaction, error)
	Completed(ctx context.Context, buyerID string) ([]ListingWithTransaction, error)
	// History lists the user's transactions as buyer or seller in any status.
	History(ctx context.Context, userID string, status *model.TransactionStatus, limit int) ([]ListingWithTransaction, error)
	// ListingTransactions is the seller's log of every attempt on one listing.
	ListingTransactions(ctx context.Context, sellerID, listingID string) ([]model.Transaction, error)
}

type viewService struct {
	listings repository.ListingRepository
	txs      repository.TransactionRepository
}

func NewViewService(listings repository.ListingRepository, txs repository.TransactionRepository) ViewService {
	return &viewService{listings: listings, txs: txs}
}

func (s *viewService) Marketplace(ctx context.Context, buyerID string, f ListingFilter) ([]model.Listing, error) {
	if buyerID == "" {
		return nil, invalid("buyer is required")
	}
	list, err := s.listings.ListAvailableFor(ctx, buyerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return FilterListings(list, f), nil
}

func (s *viewService) Pending(ctx context.Context, buyerID string) ([]ListingWithTransaction, error) {
	return s.byStatus(ctx, buyerID, model.TransactionStatusPending)
}

func (s *viewService) Completed(ctx context.Context, buyerID string) ([]ListingWithTransaction, error) {
	return s.byStatus(ctx, buyerID, model.TransactionStatusCompleted)
}

func (s *viewService) byStatus(ctx context.Context, buyerID string, status model.TransactionStatus) ([]ListingWithTransaction, error) {
	if buyerID == "" {
		return nil, invalid("buyer is required")
	}
	txs, err := s.txs.ListByBuyer(ctx, buyerID, status)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.withListings(ctx, txs)
}

func (s *viewService) History(ctx context.Context, userID string, status *model.TransactionStatus, limit int) ([]ListingWithTransaction, error) {
	if userID == "" {
		return nil, invalid("user is required")
	}
	if status != nil && !status.Valid() {
		return nil, invalid("status must be pending, completed, cancelled or expired")
	}
	txs, err := s.txs.ListByParty(ctx, userID, status, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.withListings(ctx, txs)
}

func (s *viewService) ListingTransactions(ctx context.Context, sellerID, listingID string) ([]model.Transaction, error) {
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, storeErr(err)
	}
	if l.SellerID != sellerID {
		return nil, ErrForbidden
	}
	txs, err := s.txs.ListByListing(ctx, listingID)
	if err != nil {
		return nil, storeErr(err)
	}
	return txs, nil
}

func (s *viewService) withListings(ctx context.Context, txs []model.Transaction) ([]ListingWithTransaction, error) {
	ids := make([]string, 0, len(txs))
	for _, t := range txs {
		ids = append(ids, t.ListingID)
	}
	listings, err := s.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err)
	}
	byID := make(map[string]model.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}
	resp := make([]ListingWithTransaction, 0, len(txs))
	for _, t := range txs {
		l, ok := byID[t.ListingID]
		if !ok {
			continue
		}
		resp = append(resp, ListingWithTransaction{Listing: l, Transaction: t})
	}
	return resp, nil
}

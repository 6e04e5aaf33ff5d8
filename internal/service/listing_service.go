package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/scrap-exchange/internal/event"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
	"github.com/shopspring/decimal"
)

type ListingInput struct {
	Title         string
	Description   string
	Category      string
	WeightKg      float64
	ExpectedPrice decimal.Decimal
	ImageRef      *string
	Location      *string
	LocationLat   *float64
	LocationLng   *float64
}

type SellerStats struct {
	Total      int
	Available  int
	Pending    int
	Sold       int
	TotalValue decimal.Decimal
}

type SellerDashboard struct {
	Listings []model.Listing
	Stats    SellerStats
}

type MarketStats struct {
	Listings         map[model.ListingStatus]int64
	Transactions     int64
	CompletedRevenue decimal.Decimal
}

// SweepKicker triggers an opportunistic expiration sweep without waiting.
type SweepKicker interface {
	Kick()
}

type ListingService interface {
	Create(ctx context.Context, sellerID string, in ListingInput) (*model.Listing, error)
	Update(ctx context.Context, sellerID, listingID string, in ListingInput) (*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	ListMine(ctx context.Context, sellerID string) (*SellerDashboard, error)
	Stats(ctx context.Context) (*MarketStats, error)
}

type listingService struct {
	listings repository.ListingRepository
	txs      repository.TransactionRepository
	sweeper  SweepKicker
	pub      event.Publisher
	now      func() time.Time
}

func NewListingService(listings repository.ListingRepository, txs repository.TransactionRepository, sweeper SweepKicker, pub event.Publisher, now func() time.Time) ListingService {
	if pub == nil {
		pub = event.Discard
	}
	return &listingService{listings: listings, txs: txs, sweeper: sweeper, pub: pub, now: clockOrDefault(now)}
}

func (in *ListingInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" || len(in.Title) > 120 {
		return invalid("title must be 1-120 characters")
	}
	if in.Category == "" || len(in.Category) > 64 {
		return invalid("category is required")
	}
	if in.WeightKg <= 0 {
		return invalid("weight must be positive")
	}
	if !in.ExpectedPrice.IsPositive() {
		return invalid("expected price must be positive")
	}
	if in.ImageRef != nil {
		ref := strings.TrimSpace(*in.ImageRef)
		if strings.HasPrefix(ref, "data:") {
			return invalid("imageRef must be a URL or object path, not data URI")
		}
		if ref == "" {
			in.ImageRef = nil
		} else {
			in.ImageRef = &ref
		}
	}
	if in.Location != nil {
		loc := strings.TrimSpace(*in.Location)
		if loc == "" {
			in.Location = nil
		} else {
			in.Location = &loc
		}
	}
	if (in.LocationLat == nil) != (in.LocationLng == nil) {
		return invalid("location lat and lng must be given together")
	}
	if in.LocationLat != nil && (*in.LocationLat < -90 || *in.LocationLat > 90 || *in.LocationLng < -180 || *in.LocationLng > 180) {
		return invalid("location coordinates out of range")
	}
	return nil
}

func (s *listingService) Create(ctx context.Context, sellerID string, in ListingInput) (*model.Listing, error) {
	if sellerID == "" {
		return nil, invalid("seller is required")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	l := &model.Listing{
		ID:            uuid.NewString(),
		SellerID:      sellerID,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		WeightKg:      in.WeightKg,
		ExpectedPrice: in.ExpectedPrice,
		ImageRef:      in.ImageRef,
		Location:      in.Location,
		LocationLat:   in.LocationLat,
		LocationLng:   in.LocationLng,
		Status:        model.ListingStatusAvailable,
		CreatedAt:     s.now(),
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, storeErr(err)
	}
	s.pub.Publish(event.Event{Type: event.ListingCreated, ListingID: l.ID, SellerID: sellerID, Amount: l.ExpectedPrice, At: l.CreatedAt})
	return l, nil
}

// Update edits a listing's details. Status is never touched here; an edit
// racing a purchase may lose to the purchase's status flip.
func (s *listingService) Update(ctx context.Context, sellerID, listingID string, in ListingInput) (*model.Listing, error) {
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, storeErr(err)
	}
	if l.SellerID != sellerID {
		return nil, ErrForbidden
	}
	if l.Status == model.ListingStatusSold {
		return nil, invalid("sold listings cannot be edited")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	l.Title = in.Title
	l.Description = in.Description
	l.Category = in.Category
	l.WeightKg = in.WeightKg
	l.ExpectedPrice = in.ExpectedPrice
	l.ImageRef = in.ImageRef
	l.Location = in.Location
	l.LocationLat = in.LocationLat
	l.LocationLng = in.LocationLng
	if err := s.listings.UpdateDetails(ctx, l); err != nil {
		return nil, storeErr(err)
	}
	return s.Get(ctx, listingID)
}

func (s *listingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return l, nil
}

// ListMine is the seller dashboard read. It kicks the expiration sweep on
// the way in; the sweep never delays or fails the read.
func (s *listingService) ListMine(ctx context.Context, sellerID string) (*SellerDashboard, error) {
	if sellerID == "" {
		return nil, invalid("seller is required")
	}
	if s.sweeper != nil {
		s.sweeper.Kick()
	}
	list, err := s.listings.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return &SellerDashboard{Listings: list, Stats: sellerStats(list)}, nil
}

func sellerStats(list []model.Listing) SellerStats {
	st := SellerStats{Total: len(list), TotalValue: decimal.Zero}
	for i := range list {
		switch list[i].Status {
		case model.ListingStatusAvailable:
			st.Available++
		case model.ListingStatusPending:
			st.Pending++
		case model.ListingStatusSold:
			st.Sold++
		}
		st.TotalValue = st.TotalValue.Add(list[i].Price())
	}
	return st
}

func (s *listingService) Stats(ctx context.Context) (*MarketStats, error) {
	counts, err := s.listings.CountByStatus(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	n, revenue, err := s.txs.Totals(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return &MarketStats{Listings: counts, Transactions: n, CompletedRevenue: revenue}, nil
}

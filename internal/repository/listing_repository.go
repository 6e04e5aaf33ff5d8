package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/scrap-exchange/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Listing, error)
	UpdateDetails(ctx context.Context, l *model.Listing) error
	ListBySeller(ctx context.Context, sellerID string) ([]model.Listing, error)
	ListAvailableFor(ctx context.Context, buyerID string) ([]model.Listing, error)
	ReserveIfAvailable(ctx context.Context, id string) (int64, error)
	MarkSoldIfPending(ctx context.Context, id string) (int64, error)
	ReleaseIfPending(ctx context.Context, id string, resetPrice bool) (int64, error)
	SetCO2Saved(ctx context.Context, id string, kg float64) error
	CountByStatus(ctx context.Context) (map[model.ListingStatus]int64, error)
	WithTx(tx *gorm.DB) ListingRepository
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) WithTx(tx *gorm.DB) ListingRepository {
	return &listingRepository{db: tx}
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var l model.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	list := []model.Listing{}
	if len(ids) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateDetails writes the seller-editable columns only; status and
// actual_price belong to the purchase flow.
func (r *listingRepository) UpdateDetails(ctx context.Context, l *model.Listing) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND seller_id = ?", l.ID, l.SellerID).
		Updates(map[string]interface{}{
			"title":          l.Title,
			"description":    l.Description,
			"category":       l.Category,
			"weight_kg":      l.WeightKg,
			"expected_price": l.ExpectedPrice,
			"image_ref":      l.ImageRef,
			"location":       l.Location,
			"location_lat":   l.LocationLat,
			"location_lng":   l.LocationLng,
		}).Error
}

func (r *listingRepository) ListBySeller(ctx context.Context, sellerID string) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Listing
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListAvailableFor returns available listings the buyer holds no active
// transaction on.
func (r *listingRepository) ListAvailableFor(ctx context.Context, buyerID string) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	db := r.db.WithContext(ctx)
	held := db.Model(&model.Transaction{}).
		Select("listing_id").
		Where("buyer_id = ? AND status IN ?", buyerID, statusStrings(model.ActiveTransactionStatuses))
	var list []model.Listing
	if err := db.
		Where("status = ?", model.ListingStatusAvailable).
		Where("id NOT IN (?)", held).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ReserveIfAvailable is the purchase gate: it flips the listing to pending
// only while it is still available and pins actual_price to the asking price.
func (r *listingRepository) ReserveIfAvailable(ctx context.Context, id string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, model.ListingStatusAvailable).
		Updates(map[string]interface{}{
			"status":       model.ListingStatusPending,
			"actual_price": gorm.Expr("COALESCE(actual_price, expected_price)"),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *listingRepository) MarkSoldIfPending(ctx context.Context, id string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, model.ListingStatusPending).
		Update("status", model.ListingStatusSold)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *listingRepository) ReleaseIfPending(ctx context.Context, id string, resetPrice bool) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	updates := map[string]interface{}{"status": model.ListingStatusAvailable}
	if resetPrice {
		updates["actual_price"] = nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, model.ListingStatusPending).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *listingRepository) SetCO2Saved(ctx context.Context, id string, kg float64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ?", id).
		Update("co2_saved_kg", kg).Error
}

func (r *listingRepository) CountByStatus(ctx context.Context) (map[model.ListingStatus]int64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []struct {
		Status model.ListingStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[model.ListingStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func statusStrings(statuses []model.TransactionStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

package repository

import (
	"context"
	"time"

	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) error
	FindByID(ctx context.Context, id string) (*model.Transaction, error)
	FindActiveByListing(ctx context.Context, listingID string) (*model.Transaction, error)
	FindPendingByListingAndBuyer(ctx context.Context, listingID, buyerID string) (*model.Transaction, error)
	ListByListing(ctx context.Context, listingID string) ([]model.Transaction, error)
	ListByBuyer(ctx context.Context, buyerID string, status model.TransactionStatus) ([]model.Transaction, error)
	ListByParty(ctx context.Context, userID string, status *model.TransactionStatus, limit int) ([]model.Transaction, error)
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Transaction, error)
	CompleteIfPending(ctx context.Context, id, buyerID string, reference *string, at time.Time) (int64, error)
	CloseIfPending(ctx context.Context, id string, status model.TransactionStatus, at time.Time) (int64, error)
	SetMethodIfPending(ctx context.Context, id string, method model.PaymentMethod) (int64, error)
	Totals(ctx context.Context) (count int64, completedRevenue decimal.Decimal, err error)
	WithTx(tx *gorm.DB) TransactionRepository
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepository{db: tx}
}

func (r *transactionRepository) Create(ctx context.Context, t *model.Transaction) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var t model.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) FindActiveByListing(ctx context.Context, listingID string) (*model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var t model.Transaction
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status IN ?", listingID, statusStrings(model.ActiveTransactionStatuses)).
		Order("created_at DESC").
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) FindPendingByListingAndBuyer(ctx context.Context, listingID, buyerID string) (*model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var t model.Transaction
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ? AND status = ?", listingID, buyerID, model.TransactionStatusPending).
		Order("created_at DESC").
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) ListByListing(ctx context.Context, listingID string) ([]model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Transaction
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *transactionRepository) ListByBuyer(ctx context.Context, buyerID string, status model.TransactionStatus) ([]model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Transaction
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND status = ?", buyerID, status).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListByParty returns transactions where the user is buyer or seller,
// newest first. A nil status matches every status.
func (r *transactionRepository) ListByParty(ctx context.Context, userID string, status *model.TransactionStatus, limit int) ([]model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("(buyer_id = ? OR seller_id = ?)", userID, userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var list []model.Transaction
	if err := q.Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *transactionRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Transaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 {
		limit = 100
	}
	var list []model.Transaction
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.TransactionStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *transactionRepository) CompleteIfPending(ctx context.Context, id, buyerID string, reference *string, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND buyer_id = ? AND status = ?", id, buyerID, model.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":            model.TransactionStatusCompleted,
			"payment_reference": reference,
			"closed_at":         at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// CloseIfPending moves a pending transaction to a terminal negative status
// (cancelled or expired).
func (r *transactionRepository) CloseIfPending(ctx context.Context, id string, status model.TransactionStatus, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, model.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":    status,
			"closed_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *transactionRepository) SetMethodIfPending(ctx context.Context, id string, method model.PaymentMethod) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, model.TransactionStatusPending).
		Update("payment_method", method)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *transactionRepository) Totals(ctx context.Context) (int64, decimal.Decimal, error) {
	if r.db == nil {
		return 0, decimal.Zero, ErrDBNotReady
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Transaction{}).Count(&count).Error; err != nil {
		return 0, decimal.Zero, err
	}
	var revenue decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("SUM(amount)").
		Where("status = ?", model.TransactionStatusCompleted).
		Row().Scan(&revenue); err != nil {
		return 0, decimal.Zero, err
	}
	if !revenue.Valid {
		return count, decimal.Zero, nil
	}
	return count, revenue.Decimal, nil
}

package repository

import (
	"context"

	"github.com/shinyyama/scrap-exchange/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayeeRepository interface {
	Upsert(ctx context.Context, p *model.PayeeProfile) error
	Get(ctx context.Context, userID string) (*model.PayeeProfile, error)
}

type payeeRepository struct {
	db *gorm.DB
}

func NewPayeeRepository(db *gorm.DB) PayeeRepository {
	return &payeeRepository{db: db}
}

func (r *payeeRepository) Upsert(ctx context.Context, p *model.PayeeProfile) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"upi_handle", "updated_at"}),
	}).Create(p).Error
}

func (r *payeeRepository) Get(ctx context.Context, userID string) (*model.PayeeProfile, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.PayeeProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

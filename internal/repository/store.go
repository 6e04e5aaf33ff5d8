package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs fn inside one database transaction with both ledgers
// bound to it. Returning an error rolls everything back.
type Transactor interface {
	InTx(ctx context.Context, fn func(listings ListingRepository, txs TransactionRepository) error) error
}

type gormTransactor struct {
	db       *gorm.DB
	listings ListingRepository
	txs      TransactionRepository
}

func NewTransactor(db *gorm.DB, listings ListingRepository, txs TransactionRepository) Transactor {
	return &gormTransactor{db: db, listings: listings, txs: txs}
}

func (t *gormTransactor) InTx(ctx context.Context, fn func(ListingRepository, TransactionRepository) error) error {
	if t.db == nil {
		return ErrDBNotReady
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(t.listings.WithTx(tx), t.txs.WithTx(tx))
	})
}

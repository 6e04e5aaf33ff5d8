package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusExpired   TransactionStatus = "expired"
)

// ActiveTransactionStatuses block every other buyer from the listing.
var ActiveTransactionStatuses = []TransactionStatus{TransactionStatusPending, TransactionStatusCompleted}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusCancelled, TransactionStatusExpired:
		return true
	}
	return false
}

func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusCancelled || s == TransactionStatusExpired
}

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard:
		return true
	}
	return false
}

type Transaction struct {
	ID               string            `gorm:"primaryKey;size:36"`
	ListingID        string            `gorm:"column:listing_id;size:36;index;not null"`
	BuyerID          string            `gorm:"column:buyer_id;size:128;index;not null"`
	SellerID         string            `gorm:"column:seller_id;size:128;index;not null"`
	Amount           decimal.Decimal   `gorm:"column:amount;type:decimal(12,2);not null"`
	PaymentMethod    PaymentMethod     `gorm:"column:payment_method;size:16;not null"`
	Status           TransactionStatus `gorm:"column:status;size:16;index;not null"`
	PaymentReference *string           `gorm:"column:payment_reference;size:128"`
	ClosedAt         *time.Time        `gorm:"column:closed_at"`
	CreatedAt        time.Time         `gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}

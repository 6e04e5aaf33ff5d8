package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusSold      ListingStatus = "sold"
)

type Listing struct {
	ID            string              `gorm:"primaryKey;size:36"`
	SellerID      string              `gorm:"column:seller_id;size:128;index;not null"`
	Title         string              `gorm:"size:120;not null"`
	Description   string              `gorm:"type:text"`
	Category      string              `gorm:"size:64;index;not null"`
	WeightKg      float64             `gorm:"column:weight_kg;not null"`
	ExpectedPrice decimal.Decimal     `gorm:"column:expected_price;type:decimal(12,2);not null"`
	ActualPrice   decimal.NullDecimal `gorm:"column:actual_price;type:decimal(12,2)"`
	ImageRef      *string             `gorm:"column:image_ref;size:512"`
	Location      *string             `gorm:"column:location;size:255"`
	LocationLat   *float64            `gorm:"column:location_lat"`
	LocationLng   *float64            `gorm:"column:location_lng"`
	Status        ListingStatus       `gorm:"column:status;size:16;index;not null"`
	CO2SavedKg    *float64            `gorm:"column:co2_saved_kg"`
	CreatedAt     time.Time           `gorm:"autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}

// Price is the amount a purchase started now would be recorded at.
func (l *Listing) Price() decimal.Decimal {
	if l.ActualPrice.Valid {
		return l.ActualPrice.Decimal
	}
	return l.ExpectedPrice
}

package model

import "time"

// PayeeProfile holds where a seller wants to be paid.
type PayeeProfile struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:128"`
	UPIHandle string    `gorm:"column:upi_handle;size:128"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PayeeProfile) TableName() string {
	return "payee_profiles"
}

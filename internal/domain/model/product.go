package model

import (
	"time"
)

// カタログ（読み取り専用）
type Product struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Slug         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	ImageURL     string    `gorm:"type:text" json:"imageUrl"`
	PriceCents   int64     `gorm:"not null" json:"priceCents"`
	CurrencyCode string    `gorm:"type:char(3);not null" json:"currencyCode"`
	IsActive     bool      `gorm:"not null;default:false" json:"isActive"`
	CollectionID *string   `gorm:"type:uuid;index" json:"collectionId,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}

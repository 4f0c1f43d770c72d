package model

import "time"

// 商品名と単価は注文時点のスナップショット
type OrderItem struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        string    `gorm:"type:uuid;not null;index" json:"orderId"`
	ProductID      string    `gorm:"type:uuid;not null;index" json:"productId"`
	ProductName    string    `gorm:"type:varchar(255);not null" json:"productName"`
	UnitPriceCents int64     `gorm:"not null" json:"unitPriceCents"`
	Quantity       int64     `gorm:"not null" json:"quantity"`
	TotalCents     int64     `gorm:"not null" json:"totalCents"`
	Fragrance      *string   `gorm:"type:varchar(100)" json:"fragrance,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
}

func LineTotal(unitPriceCents, quantity int64) int64 {
	return unitPriceCents * quantity
}

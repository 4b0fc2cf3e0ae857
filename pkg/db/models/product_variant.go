package models

import "time"

// ProductVariant is an ordered option under a product, optionally shifting
// the unit price by PriceDeltaCents. Variant IDs are unique per product,
// not globally, so the primary key is composite.
type ProductVariant struct {
	ProductID       string    `gorm:"column:product_id;primaryKey"`
	ID              string    `gorm:"column:id;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	PriceDeltaCents int64     `gorm:"column:price_delta_cents;not null;default:0"`
	InStock         bool      `gorm:"column:in_stock;not null;default:true"`
	Position        int       `gorm:"column:position;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

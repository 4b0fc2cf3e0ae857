package models

import "time"

// Product is an immutable catalog entry. Rows are loaded once at process
// start and never written by the service.
type Product struct {
	ID          string           `gorm:"column:id;primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description string           `gorm:"column:description;not null;default:''"`
	PriceCents  int64            `gorm:"column:price_cents;not null"`
	Currency    string           `gorm:"column:currency;not null;default:'usd'"`
	ImageURLs   string           `gorm:"column:image_urls;not null;default:''"`
	InStock     bool             `gorm:"column:in_stock;not null;default:true"`
	Position    int              `gorm:"column:position;not null;default:0"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;references:ID"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (Product) TableName() string {
	return "products"
}

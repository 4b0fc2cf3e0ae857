package models

import "time"

// ShippingOption is an immutable catalog entry for a delivery method.
type ShippingOption struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Description  string    `gorm:"column:description;not null;default:''"`
	PriceCents   int64     `gorm:"column:price_cents;not null"`
	Currency     string    `gorm:"column:currency;not null;default:'usd'"`
	EstimatedMin int       `gorm:"column:estimated_min_days;not null"`
	EstimatedMax int       `gorm:"column:estimated_max_days;not null"`
	Position     int       `gorm:"column:position;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ShippingOption) TableName() string {
	return "shipping_options"
}

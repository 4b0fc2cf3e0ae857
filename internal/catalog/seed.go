package catalog

import "github.com/commercegrid/acp-checkout-backend/pkg/types"

// SeedSnapshot returns the built-in demo catalog. It mirrors the seed
// migration so dev deployments without a database serve the same data.
func SeedSnapshot() *Snapshot {
	return &Snapshot{
		Products: []Product{
			{
				ID:          "prod_running_shoe",
				Name:        "Performance Running Shoe",
				Description: "Lightweight running shoe with responsive cushioning for daily training.",
				Price:       types.NewMoney(12999, "usd"),
				Images:      []string{"https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400"},
				InStock:     true,
				Variants: []Variant{
					{ID: "var_size_8", Name: "Size 8", InStock: true},
					{ID: "var_size_9", Name: "Size 9", InStock: true},
					{ID: "var_size_10", Name: "Size 10", InStock: true},
					{ID: "var_size_11", Name: "Size 11", InStock: false},
				},
			},
			{
				ID:          "prod_wireless_earbuds",
				Name:        "Pro Wireless Earbuds",
				Description: "Active noise cancellation with 24-hour battery life.",
				Price:       types.NewMoney(19999, "usd"),
				Images:      []string{"https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=400"},
				InStock:     true,
				Variants: []Variant{
					{ID: "var_color_black", Name: "Midnight Black", InStock: true},
					{ID: "var_color_white", Name: "Pearl White", InStock: true},
				},
			},
			{
				ID:          "prod_laptop_stand",
				Name:        "Ergonomic Laptop Stand",
				Description: "Aluminum laptop stand with adjustable height for better posture.",
				Price:       types.NewMoney(7999, "usd"),
				Images:      []string{"https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=400"},
				InStock:     true,
			},
			{
				ID:          "prod_water_bottle",
				Name:        "Insulated Water Bottle",
				Description: "32oz stainless steel bottle, keeps drinks cold for 24 hours.",
				Price:       types.NewMoney(3499, "usd"),
				Images:      []string{"https://images.unsplash.com/photo-1602143407151-7111542de6e8?w=400"},
				InStock:     true,
				Variants: []Variant{
					{ID: "var_color_blue", Name: "Ocean Blue", InStock: true},
					{ID: "var_color_green", Name: "Forest Green", InStock: true},
					{ID: "var_color_black", Name: "Matte Black", InStock: true},
				},
			},
		},
		ShippingOptions: []types.ShippingOption{
			{
				ID:            "ship_standard",
				Name:          "Standard Shipping",
				Description:   "Delivered in 5-7 business days",
				Price:         types.NewMoney(599, "usd"),
				EstimatedDays: types.EstimatedDays{Min: 5, Max: 7},
			},
			{
				ID:            "ship_express",
				Name:          "Express Shipping",
				Description:   "Delivered in 2-3 business days",
				Price:         types.NewMoney(1299, "usd"),
				EstimatedDays: types.EstimatedDays{Min: 2, Max: 3},
			},
			{
				ID:            "ship_overnight",
				Name:          "Overnight Shipping",
				Description:   "Delivered next business day",
				Price:         types.NewMoney(2499, "usd"),
				EstimatedDays: types.EstimatedDays{Min: 1, Max: 1},
			},
		},
	}
}

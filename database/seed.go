package database

import (
	"errors"

	"cartflow/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedProducts inserts the demo catalog. Idempotent: existing products
// (matched by name) are left untouched.
func SeedProducts(db *gorm.DB) error {
	products := []models.Product{
		{Name: "Laptop", Description: "High performance laptop for professionals", Price: decimal.NewFromFloat(999.99), StockQuantity: 15},
		{Name: "Wireless Mouse", Description: "Ergonomic wireless mouse", Price: decimal.NewFromFloat(29.99), StockQuantity: 50},
		{Name: "Mechanical Keyboard", Description: "RGB mechanical gaming keyboard", Price: decimal.NewFromFloat(79.99), StockQuantity: 3},
		{Name: "USB-C Hub", Description: "7-in-1 USB-C hub adapter", Price: decimal.NewFromFloat(49.99), StockQuantity: 25},
		{Name: "Webcam HD", Description: "1080p HD webcam with microphone", Price: decimal.NewFromFloat(59.99), StockQuantity: 2},
		{Name: "Monitor 27\"", Description: "4K UHD 27-inch monitor", Price: decimal.NewFromFloat(399.99), StockQuantity: 8},
		{Name: "Desk Lamp", Description: "LED desk lamp with adjustable brightness", Price: decimal.NewFromFloat(34.99), StockQuantity: 30},
		{Name: "Headphones", Description: "Noise-cancelling wireless headphones", Price: decimal.NewFromFloat(149.99), StockQuantity: 4},
	}

	for _, p := range products {
		var existing models.Product
		err := db.Where("name = ?", p.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}

package models

import "time"

// Medicine is a catalog entry
type Medicine struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null;index"`
	Price         float64   `json:"price" gorm:"not null"`
	ExpiryDate    time.Time `json:"expiry_date" gorm:"type:date;not null"`
	StockQuantity int       `json:"stock_quantity" gorm:"not null"`
}

// StarterCatalog returns the medicines seeded into an empty catalog
func StarterCatalog() []Medicine {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	return []Medicine{
		{Name: "Paracetamol 500mg", Price: 25.00, ExpiryDate: date(2027, time.December, 31), StockQuantity: 120},
		{Name: "Amoxicillin 250mg", Price: 85.50, ExpiryDate: date(2027, time.June, 30), StockQuantity: 60},
		{Name: "Cetirizine 10mg", Price: 18.00, ExpiryDate: date(2028, time.March, 31), StockQuantity: 200},
		{Name: "Omeprazole 20mg", Price: 42.75, ExpiryDate: date(2027, time.September, 30), StockQuantity: 90},
		{Name: "Ibuprofen 400mg", Price: 30.00, ExpiryDate: date(2027, time.November, 30), StockQuantity: 75},
		{Name: "Vitamin D3 1000IU", Price: 120.00, ExpiryDate: date(2028, time.January, 31), StockQuantity: 40},
		{Name: "ORS Sachet", Price: 12.00, ExpiryDate: date(2027, time.April, 30), StockQuantity: 15},
	}
}

package model

import (
	"context"
	"time"
)

// Car is a single inventory line owned by exactly one dealer.
type Car struct {
	ID         int64     `json:"id"`
	Make       string    `json:"make" validate:"notblank"`
	Model      string    `json:"model" validate:"notblank"`
	Year       int       `json:"year" validate:"gt=0,notfuture"`
	StockLevel int       `json:"stock_level" validate:"gte=0"`
	DealerID   int64     `json:"dealer_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks make, model, year and stock level against the calendar
// year of now. All violations are reported together.
func (c *Car) Validate(now time.Time) error {
	ctx := context.WithValue(context.Background(), yearKey{}, now.Year())
	return validateStruct(ctx, c)
}

// stockLevel wraps a bare stock value so it can be validated on its own.
type stockLevel struct {
	StockLevel int `json:"stock_level" validate:"gte=0"`
}

// ValidateStockLevel rejects negative stock.
func ValidateStockLevel(level int) error {
	return validateStruct(context.Background(), stockLevel{StockLevel: level})
}

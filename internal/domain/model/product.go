package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry referenced by order items.
type Product struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	Currency      string
	StockQuantity int
	Active        bool
	UpdatedAt     time.Time
}

package generator

import "github.com/shopspring/decimal"

// Config drives the synthetic data generator.
type Config struct {
	NumBuyers     int
	NumVendors    int
	NumProducts   int
	NumOrders     int
	NumPromotions int
	// SharedLocationChance is how often a buyer lives where some vendor already sources from.
	SharedLocationChance float64
	ShippingFee          decimal.Decimal
	Currency             string
	// Password is hashed once and shared by every generated account.
	Password string
	Seed     int64
}

// DefaultConfig returns settings for a demo-sized marketplace.
func DefaultConfig() Config {
	return Config{
		NumBuyers:            200,
		NumVendors:           20,
		NumProducts:          300,
		NumOrders:            1000,
		NumPromotions:        12,
		SharedLocationChance: 0.4,
		ShippingFee:          decimal.NewFromInt(5000),
		Currency:             "NGN",
		Password:             "marketplace123",
		Seed:                 42,
	}
}

package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"category_id"`
	Name string `json:"category_name"`
}

type Brand struct {
	ID         int64  `json:"brand_id"`
	Name       string `json:"brand_name"`
	CategoryID int64  `json:"category_id"`
}

type Product struct {
	ID         int64           `json:"product_id"`
	Name       string          `json:"product_name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	ImageURL   string          `json:"image_url"`
	BrandID    int64           `json:"brand_id"`
	CategoryID int64           `json:"category_id"`
}

// PriceBand is a named half-open price interval [Min, Max). A zero Max means
// the band is unbounded above.
type PriceBand struct {
	Name string
	Min  decimal.Decimal
	Max  decimal.Decimal
}

var priceBands = []PriceBand{
	{Name: "low", Min: decimal.Zero, Max: decimal.NewFromInt(1_000_000)},
	{Name: "medium", Min: decimal.NewFromInt(1_000_000), Max: decimal.NewFromInt(5_000_000)},
	{Name: "high", Min: decimal.NewFromInt(5_000_000), Max: decimal.NewFromInt(10_000_000)},
	{Name: "premium", Min: decimal.NewFromInt(10_000_000)},
}

// LookupPriceBand resolves a band by case-insensitive name.
func LookupPriceBand(name string) (PriceBand, bool) {
	for _, b := range priceBands {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return b, true
		}
	}
	return PriceBand{}, false
}

func (b PriceBand) Unbounded() bool {
	return b.Max.IsZero()
}

func (b PriceBand) Contains(price decimal.Decimal) bool {
	if price.LessThan(b.Min) {
		return false
	}
	return b.Unbounded() || price.LessThan(b.Max)
}

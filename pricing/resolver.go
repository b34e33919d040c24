// Package pricing decides which promotion applies to a product and what the
// product costs once that promotion is applied.
package pricing

import (
	"io"
	"log"
	"sort"
	"time"

	"flower_shop/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PromotionData describes the discount a product currently carries. It is
// derived on demand and never stored.
type PromotionData struct {
	OriginalPrice      float64 `json:"originalPrice"`
	DiscountedPrice    float64 `json:"discountedPrice"`
	DiscountPercentage float64 `json:"discountPercentage"`
	PromotionName      string  `json:"promotionName"`
	PromotionID        string  `json:"promotionId"`
}

// Resolver is stateless apart from its location and logger and may be shared
// between goroutines.
type Resolver struct {
	loc    *time.Location
	logger *log.Logger
}

// NewResolver returns a resolver that computes calendar days in loc. A nil
// loc means time.Local; a nil logger discards diagnostics.
func NewResolver(loc *time.Location, logger *log.Logger) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{loc: loc, logger: logger}
}

// Location is the zone used for end-of-day adjustment.
func (r *Resolver) Location() *time.Location { return r.loc }

// EnsureDate turns v into an instant. It accepts time.Time, *time.Time and
// ISO-8601 strings. Anything else, including the zero time, is logged and
// replaced by now.
func (r *Resolver) EnsureDate(v interface{}, now time.Time) time.Time {
	switch d := v.(type) {
	case time.Time:
		if !d.IsZero() {
			return d
		}
	case *time.Time:
		if d != nil && !d.IsZero() {
			return *d
		}
	case string:
		if t, err := models.ParseDate(d, r.loc); err == nil {
			return t
		}
	}
	r.logger.Printf("invalid promotion date: %v", v)
	return now
}

// EndOfDay returns the last millisecond of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// IsPromotionActive reports whether p is enabled and now falls within
// [start, end-of-day(end)]. A zero now means the current time.
func (r *Resolver) IsPromotionActive(p models.Promotion, now time.Time) bool {
	if !p.Active {
		return false
	}
	if now.IsZero() {
		now = time.Now()
	}
	start := r.EnsureDate(p.StartDate, now)
	end := EndOfDay(r.EnsureDate(p.EndDate, now), r.loc)
	return !now.Before(start) && !now.After(end)
}

// CalculateDiscountedPrice picks the highest-valued active promotion of
// product and applies it. Promotions with equal values keep their input
// order. It returns nil when no valid discount applies; invalid values are
// logged, never returned.
func (r *Resolver) CalculateDiscountedPrice(product models.Product, now time.Time) *PromotionData {
	if len(product.Promotions) == 0 {
		return nil
	}
	if now.IsZero() {
		now = time.Now()
	}

	sorted := make([]models.Promotion, len(product.Promotions))
	copy(sorted, product.Promotions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value.GreaterThan(sorted[j].Value)
	})

	var winner *models.Promotion
	for i := range sorted {
		if r.IsPromotionActive(sorted[i], now) {
			winner = &sorted[i]
			break
		}
	}
	if winner == nil {
		return nil
	}

	pct := winner.Value
	if !pct.IsPositive() || pct.GreaterThanOrEqual(hundred) {
		r.logger.Printf("invalid discount percentage: %s (promotion %s)", pct.String(), winner.ID)
		return nil
	}
	price := product.Price
	if !price.IsPositive() {
		r.logger.Printf("invalid product price: %s (product %s)", price.String(), product.ID)
		return nil
	}

	discounted := price.Mul(hundred.Sub(pct)).Div(hundred).Round(2)

	return &PromotionData{
		OriginalPrice:      price.InexactFloat64(),
		DiscountedPrice:    discounted.InexactFloat64(),
		DiscountPercentage: pct.InexactFloat64(),
		PromotionName:      winner.Name,
		PromotionID:        winner.ID,
	}
}

// BuildIndex computes the discount of every product once. Products without
// a discount are absent from the result.
func (r *Resolver) BuildIndex(products []models.Product, now time.Time) map[string]PromotionData {
	if now.IsZero() {
		now = time.Now()
	}
	index := make(map[string]PromotionData, len(products))
	for _, p := range products {
		if data := r.CalculateDiscountedPrice(p, now); data != nil {
			index[p.ID] = *data
		}
	}
	return index
}

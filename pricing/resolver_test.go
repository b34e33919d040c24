package pricing

import (
	"bytes"
	"log"
	"testing"
	"time"

	"flower_shop/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)

func newTestResolver() (*Resolver, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewResolver(time.UTC, log.New(buf, "", 0)), buf
}

func promo(id string, value string, start, end time.Time, active bool) models.Promotion {
	return models.Promotion{
		ID:        id,
		Name:      "Promo " + id,
		Type:      models.Percentage,
		Value:     decimal.RequireFromString(value),
		StartDate: start,
		EndDate:   end,
		Active:    active,
	}
}

func product(price string, promos ...models.Promotion) models.Product {
	return models.Product{
		ID:         "p-1",
		Name:       "Ramo de rosas",
		Price:      decimal.RequireFromString(price),
		Active:     true,
		Promotions: promos,
	}
}

func day(d int) time.Time { return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC) }

func TestIsPromotionActiveDisabledIgnoresDates(t *testing.T) {
	r, _ := newTestResolver()
	p := promo("a", "10", day(1), day(31), false)

	for _, now := range []time.Time{day(1), ref, day(31), day(31).Add(23 * time.Hour)} {
		assert.False(t, r.IsPromotionActive(p, now))
	}
}

func TestIsPromotionActiveWindow(t *testing.T) {
	r, _ := newTestResolver()
	p := promo("a", "10", day(10), day(20), true)

	assert.True(t, r.IsPromotionActive(p, day(10)), "start is inclusive")
	assert.True(t, r.IsPromotionActive(p, ref))
	assert.True(t, r.IsPromotionActive(p, day(20).Add(23*time.Hour+59*time.Minute)))

	assert.False(t, r.IsPromotionActive(p, day(10).Add(-time.Millisecond)))
	assert.False(t, r.IsPromotionActive(p, day(21)))
	assert.False(t, r.IsPromotionActive(p, day(25)))
}

func TestIsPromotionActiveEndsAtEndOfDay(t *testing.T) {
	r, _ := newTestResolver()
	today := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	// end date carries an arbitrary time of day
	p := promo("a", "10", day(1), today.Add(8*time.Hour+30*time.Minute), true)

	assert.True(t, r.IsPromotionActive(p, today.Add(23*time.Hour+59*time.Minute+59*time.Second+998*time.Millisecond)))
	assert.False(t, r.IsPromotionActive(p, today.AddDate(0, 0, 1).Add(time.Millisecond)))
}

func TestEndOfDayUsesResolverLocation(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)
	r := NewResolver(bogota, nil)
	// 2025-05-20 03:00 UTC is still the 19th in Bogotá.
	p := promo("a", "10", day(1), time.Date(2025, 5, 20, 3, 0, 0, 0, time.UTC), true)

	lastInstant := time.Date(2025, 5, 19, 23, 59, 59, 0, bogota)
	assert.True(t, r.IsPromotionActive(p, lastInstant))
	assert.False(t, r.IsPromotionActive(p, lastInstant.Add(time.Second)))
	assert.Equal(t, bogota, r.Location())
}

func TestEnsureDate(t *testing.T) {
	r, logs := newTestResolver()
	now := ref

	assert.True(t, r.EnsureDate(day(3), now).Equal(day(3)))
	d := day(4)
	assert.True(t, r.EnsureDate(&d, now).Equal(day(4)))
	assert.True(t, r.EnsureDate("2025-05-01T00:00:00.000Z", now).Equal(day(1)))
	assert.True(t, r.EnsureDate("2025-05-02", now).Equal(day(2)))
	assert.Empty(t, logs.String())

	assert.True(t, r.EnsureDate("not a date", now).Equal(now))
	assert.True(t, r.EnsureDate(time.Time{}, now).Equal(now))
	assert.True(t, r.EnsureDate((*time.Time)(nil), now).Equal(now))
	assert.True(t, r.EnsureDate(42, now).Equal(now))
	assert.Contains(t, logs.String(), "invalid promotion date")
}

func TestInvalidStartDateFallsBackToNow(t *testing.T) {
	r, logs := newTestResolver()
	p := promo("a", "10", time.Time{}, day(20), true)

	assert.True(t, r.IsPromotionActive(p, ref))
	assert.Contains(t, logs.String(), "invalid promotion date")
}

func TestCalculateDiscountedPriceNoPromotions(t *testing.T) {
	r, _ := newTestResolver()
	assert.Nil(t, r.CalculateDiscountedPrice(product("10"), ref))
	assert.Nil(t, r.CalculateDiscountedPrice(models.Product{Price: decimal.NewFromInt(10), Promotions: []models.Promotion{}}, ref))
}

func TestCalculateDiscountedPriceOnlyInactive(t *testing.T) {
	r, _ := newTestResolver()
	p := product("50",
		promo("off", "30", day(1), day(31), false),
		promo("past", "20", day(1), day(5), true),
		promo("future", "10", day(20), day(25), true),
	)
	assert.Nil(t, r.CalculateDiscountedPrice(p, ref))
}

func TestCalculateDiscountedPricePicksHighestActive(t *testing.T) {
	r, _ := newTestResolver()
	p := product("100.00",
		promo("ten", "10", day(1), day(31), true),
		promo("quarter", "25", day(1), day(31), true),
	)

	got := r.CalculateDiscountedPrice(p, ref)
	require.NotNil(t, got)
	assert.Equal(t, PromotionData{
		OriginalPrice:      100,
		DiscountedPrice:    75,
		DiscountPercentage: 25,
		PromotionName:      "Promo quarter",
		PromotionID:        "quarter",
	}, *got)
}

func TestCalculateDiscountedPriceSkipsInactiveHigherValue(t *testing.T) {
	r, _ := newTestResolver()
	p := product("80",
		promo("big", "50", day(20), day(25), true),
		promo("small", "10", day(1), day(31), true),
	)

	got := r.CalculateDiscountedPrice(p, ref)
	require.NotNil(t, got)
	assert.Equal(t, "small", got.PromotionID)
	assert.Equal(t, 72.0, got.DiscountedPrice)
}

func TestCalculateDiscountedPriceRoundsToCents(t *testing.T) {
	r, _ := newTestResolver()

	got := r.CalculateDiscountedPrice(product("33.33", promo("a", "15", day(1), day(31), true)), ref)
	require.NotNil(t, got)
	assert.Equal(t, 28.33, got.DiscountedPrice)

	// 19.99 * 0.875 = 17.49125
	got = r.CalculateDiscountedPrice(product("19.99", promo("a", "12.5", day(1), day(31), true)), ref)
	require.NotNil(t, got)
	assert.Equal(t, 17.49, got.DiscountedPrice)

	// 0.30 * 0.95 = 0.285 rounds half away from zero
	got = r.CalculateDiscountedPrice(product("0.30", promo("a", "5", day(1), day(31), true)), ref)
	require.NotNil(t, got)
	assert.Equal(t, 0.29, got.DiscountedPrice)
}

func TestCalculateDiscountedPriceRejectsBoundaryValues(t *testing.T) {
	for _, value := range []string{"0", "100", "-5", "150"} {
		r, logs := newTestResolver()
		p := product("40", promo("a", value, day(1), day(31), true))
		assert.Nil(t, r.CalculateDiscountedPrice(p, ref), value)
		assert.Contains(t, logs.String(), "invalid discount percentage", value)
	}
}

func TestCalculateDiscountedPriceRejectsNonPositivePrice(t *testing.T) {
	for _, price := range []string{"0", "-10.50"} {
		r, logs := newTestResolver()
		p := product(price, promo("a", "10", day(1), day(31), true))
		assert.Nil(t, r.CalculateDiscountedPrice(p, ref), price)
		assert.Contains(t, logs.String(), "invalid product price", price)
	}
}

func TestCalculateDiscountedPriceInvalidWinnerDoesNotFallThrough(t *testing.T) {
	r, _ := newTestResolver()
	// The 100% promotion wins the sort and then fails validation.
	p := product("40",
		promo("bad", "100", day(1), day(31), true),
		promo("ok", "10", day(1), day(31), true),
	)
	assert.Nil(t, r.CalculateDiscountedPrice(p, ref))
}

func TestCalculateDiscountedPriceTieKeepsInputOrder(t *testing.T) {
	r, _ := newTestResolver()
	first := promo("first", "20", day(1), day(31), true)
	second := promo("second", "20", day(1), day(31), true)

	got := r.CalculateDiscountedPrice(product("10", first, second), ref)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.PromotionID)

	got = r.CalculateDiscountedPrice(product("10", second, first), ref)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.PromotionID)
}

func TestCalculateDiscountedPriceIsPure(t *testing.T) {
	r, _ := newTestResolver()
	p := product("59.90",
		promo("a", "10", day(1), day(31), true),
		promo("b", "35", day(1), day(31), true),
		promo("c", "5", day(1), day(31), true),
	)

	first := r.CalculateDiscountedPrice(p, ref)
	second := r.CalculateDiscountedPrice(p, ref)
	require.NotNil(t, first)
	assert.Equal(t, *first, *second)
	// input order untouched
	assert.Equal(t, "a", p.Promotions[0].ID)
	assert.Equal(t, "c", p.Promotions[2].ID)
}

func TestBuildIndex(t *testing.T) {
	r, _ := newTestResolver()
	discounted := product("20", promo("a", "50", day(1), day(31), true))
	discounted.ID = "rosas"
	plain := product("15")
	plain.ID = "tulipanes"
	expired := product("15", promo("b", "50", day(1), day(2), true))
	expired.ID = "lirios"

	index := r.BuildIndex([]models.Product{discounted, plain, expired}, ref)

	require.Len(t, index, 1)
	assert.Equal(t, 10.0, index["rosas"].DiscountedPrice)
	_, ok := index["tulipanes"]
	assert.False(t, ok)
}

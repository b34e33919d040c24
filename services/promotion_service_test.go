package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"flower_shop/cache"
	"flower_shop/database"
	"flower_shop/events"
	"flower_shop/models"
	"flower_shop/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Open("sqlite", ":memory:", false)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestCatalog(t *testing.T, db *gorm.DB) (*CatalogService, *recordingPublisher) {
	store := cache.NewMemory(0)
	t.Cleanup(store.Close)
	pub := &recordingPublisher{}
	return NewCatalogService(db, pricing.NewResolver(time.UTC, nil), store, pub, time.Minute), pub
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createProduct(t *testing.T, db *gorm.DB, name, price string) models.Product {
	p := models.Product{Name: name, Price: dec(price), Active: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func createPromotion(t *testing.T, db *gorm.DB, name, value string, start, end time.Time) models.Promotion {
	p := models.Promotion{Name: name, Value: dec(value), StartDate: start, EndDate: end, Active: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestCreatePromotion(t *testing.T) {
	db := setupTestDB(t)
	catalog, pub := newTestCatalog(t, db)
	service := NewPromotionService(db, pricing.NewResolver(time.UTC, nil), catalog)
	rose := createProduct(t, db, "Rosas rojas", "30")

	promo, err := service.Create(context.Background(), PromotionInput{
		Name:       "Día de la madre",
		Value:      dec("20"),
		StartDate:  "2025-05-01",
		EndDate:    "2025-05-04T00:00:00.000Z",
		ProductIDs: []string{rose.ID},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, promo.ID)
	assert.Equal(t, models.Percentage, promo.Type)
	assert.True(t, promo.Active)
	assert.True(t, promo.Value.Equal(dec("20")))
	require.Len(t, promo.Products, 1)
	assert.Equal(t, rose.ID, promo.Products[0].ID)

	var count int64
	db.Model(&models.Promotion{}).Count(&count)
	assert.Equal(t, int64(1), count)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.PromotionChanged, pub.events[0].Type)
	assert.Equal(t, "create", pub.events[0].Action)
}

func TestCreatePromotionValidation(t *testing.T) {
	db := setupTestDB(t)
	service := NewPromotionService(db, pricing.NewResolver(time.UTC, nil), nil)
	ctx := context.Background()

	cases := map[string]PromotionInput{
		"missing name":       {Value: dec("10"), StartDate: "2025-05-01", EndDate: "2025-05-02"},
		"zero value":         {Name: "x", Value: dec("0"), StartDate: "2025-05-01", EndDate: "2025-05-02"},
		"hundred percent":    {Name: "x", Value: dec("100"), StartDate: "2025-05-01", EndDate: "2025-05-02"},
		"end before start":   {Name: "x", Value: dec("10"), StartDate: "2025-05-02", EndDate: "2025-05-01"},
		"same start and end": {Name: "x", Value: dec("10"), StartDate: "2025-05-01", EndDate: "2025-05-01"},
		"bad date":           {Name: "x", Value: dec("10"), StartDate: "mañana", EndDate: "2025-05-01"},
		"unknown product":    {Name: "x", Value: dec("10"), StartDate: "2025-05-01", EndDate: "2025-05-02", ProductIDs: []string{"nope"}},
	}
	for name, in := range cases {
		_, err := service.Create(ctx, in)
		assert.True(t, errors.Is(err, ErrInvalidInput), name)
	}

	var count int64
	db.Model(&models.Promotion{}).Count(&count)
	assert.Zero(t, count)
}

func TestUpdatePromotionMergesDates(t *testing.T) {
	db := setupTestDB(t)
	service := NewPromotionService(db, pricing.NewResolver(time.UTC, nil), nil)
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	promo := createPromotion(t, db, "Primavera", "10", start, start.AddDate(0, 0, 10))

	before := "2025-04-20"
	_, err := service.Update(ctx, promo.ID, PromotionPatch{EndDate: &before})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	name := "Primavera extendida"
	end := "2025-06-30"
	value := dec("15")
	updated, err := service.Update(ctx, promo.ID, PromotionPatch{Name: &name, EndDate: &end, Value: &value})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.True(t, updated.Value.Equal(dec("15")))
	assert.True(t, updated.EndDate.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(t, updated.StartDate.Equal(start))

	_, err = service.Update(ctx, "missing", PromotionPatch{Name: &name})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeactivatePromotion(t *testing.T) {
	db := setupTestDB(t)
	service := NewPromotionService(db, pricing.NewResolver(time.UTC, nil), nil)
	ctx := context.Background()
	now := time.Now()
	promo := createPromotion(t, db, "Flash", "30", now.Add(-time.Hour), now.Add(time.Hour))

	require.NoError(t, service.Deactivate(ctx, promo.ID))
	require.NoError(t, service.Deactivate(ctx, promo.ID))

	got, err := service.Get(ctx, promo.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.True(t, errors.Is(service.Deactivate(ctx, "missing"), ErrNotFound))
}

func TestListActivePromotions(t *testing.T) {
	db := setupTestDB(t)
	service := NewPromotionService(db, pricing.NewResolver(time.UTC, nil), nil)
	now := time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)

	createPromotion(t, db, "Running", "10", now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	createPromotion(t, db, "Ends today", "25", now.AddDate(0, 0, -5), time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC))
	createPromotion(t, db, "Future", "50", now.AddDate(0, 0, 1), now.AddDate(0, 0, 5))
	disabled := createPromotion(t, db, "Disabled", "40", now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	require.NoError(t, db.Model(&disabled).Update("active", false).Error)

	active, err := service.ListActive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Ends today", active[0].Name)
	assert.Equal(t, "Running", active[1].Name)

	all, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestApplyPromotionToProducts(t *testing.T) {
	db := setupTestDB(t)
	catalog, pub := newTestCatalog(t, db)
	service := NewPromotionService(db, pricing.NewResolver(time.UTC, nil), catalog)
	ctx := context.Background()
	now := time.Now()

	promo := createPromotion(t, db, "Tulipanes", "15", now.Add(-time.Hour), now.Add(24*time.Hour))
	a := createProduct(t, db, "Tulipán amarillo", "12")
	b := createProduct(t, db, "Tulipán rosa", "14")

	got, err := service.ApplyToProducts(ctx, promo.ID, []string{a.ID, b.ID, a.ID})
	require.NoError(t, err)
	assert.Len(t, got.Products, 2)

	// applying again leaves one row per pair
	_, err = service.ApplyToProducts(ctx, promo.ID, []string{a.ID})
	require.NoError(t, err)
	var pairs int64
	db.Table("product_promotions").Where("promotion_id = ?", promo.ID).Count(&pairs)
	assert.Equal(t, int64(2), pairs)
	assert.Len(t, pub.events, 2)

	_, err = service.ApplyToProducts(ctx, promo.ID, []string{"missing"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = service.ApplyToProducts(ctx, promo.ID, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = service.ApplyToProducts(ctx, "missing", []string{a.ID})
	assert.True(t, errors.Is(err, ErrNotFound))
}

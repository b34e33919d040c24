package services

import (
	"context"
	"sync"
	"time"

	"flower_shop/cache"
	"flower_shop/events"
	"flower_shop/logger"
	"flower_shop/models"
	"flower_shop/pricing"

	"gorm.io/gorm"
)

const (
	catalogCachePrefix = "catalog:"
	discountIndexKey   = catalogCachePrefix + "discounts"
)

// ProductView is a product as the storefront renders it, with the discount
// currently in force already resolved.
type ProductView struct {
	models.Product
	Discount *pricing.PromotionData `json:"descuento,omitempty"`
}

// CatalogService serves the derived, read-mostly catalog data and is told
// about every catalog write.
type CatalogService struct {
	db        *gorm.DB
	resolver  *pricing.Resolver
	cache     cache.Store
	publisher events.Publisher
	ttl       time.Duration
	now       func() time.Time

	// generation is bumped by every invalidation; an index read that
	// overlaps one is returned but not cached.
	mu         sync.Mutex
	generation uint64
}

func NewCatalogService(db *gorm.DB, resolver *pricing.Resolver, store cache.Store, publisher events.Publisher, ttl time.Duration) *CatalogService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CatalogService{
		db:        db,
		resolver:  resolver,
		cache:     store,
		publisher: publisher,
		ttl:       ttl,
		now:       time.Now,
	}
}

// DiscountIndex maps product id to the discount in force for every active
// product. Products without a discount are absent.
func (s *CatalogService) DiscountIndex(ctx context.Context) (map[string]pricing.PromotionData, error) {
	if s.cacheEnabled() {
		var index map[string]pricing.PromotionData
		found, err := s.cache.Get(ctx, discountIndexKey, &index)
		if err != nil {
			logger.LogError("discount index cache read: %v", err)
		} else if found {
			return index, nil
		}
	}

	generation := s.currentGeneration()

	var products []models.Product
	if err := s.db.WithContext(ctx).
		Preload("Promotions").
		Where("active = ?", true).
		Find(&products).Error; err != nil {
		return nil, err
	}

	index := s.resolver.BuildIndex(products, s.now())
	if s.cacheEnabled() {
		s.storeIndex(ctx, index, generation)
	}
	return index, nil
}

func (s *CatalogService) storeIndex(ctx context.Context, index map[string]pricing.PromotionData, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		logger.LogDebug("discount index changed during read, not caching")
		return
	}
	if err := s.cache.Set(ctx, discountIndexKey, index, s.ttl); err != nil {
		logger.LogError("discount index cache write: %v", err)
	}
}

func (s *CatalogService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// OnSale lists active products that currently carry a discount.
func (s *CatalogService) OnSale(ctx context.Context) ([]ProductView, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).
		Preload("Categories").
		Preload("Images").
		Preload("Promotions").
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]ProductView, 0)
	for _, p := range products {
		if d := s.resolver.CalculateDiscountedPrice(p, now); d != nil {
			views = append(views, ProductView{Product: p, Discount: d})
		}
	}
	return views, nil
}

// Invalidate drops every cached catalog entry.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s == nil || s.cache == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.cache.DeleteByPrefix(ctx, catalogCachePrefix)
}

// View resolves the discount in force for a single product.
func (s *CatalogService) View(p models.Product) ProductView {
	return ProductView{Product: p, Discount: s.resolver.CalculateDiscountedPrice(p, s.now())}
}

// Changed is called after every committed catalog write. Failures are only
// logged: the write itself already succeeded.
func (s *CatalogService) Changed(ctx context.Context, eventType, resourceID, action string) {
	if s == nil {
		return
	}
	if err := s.Invalidate(ctx); err != nil {
		logger.LogError("catalog cache invalidate: %v", err)
	}
	e := events.Event{Type: eventType, ResourceID: resourceID, Action: action, At: s.now()}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logger.LogError("publish %s %s: %v", eventType, resourceID, err)
	}
}

// HandleEvent invalidates the local cache for events published by any
// instance.
func (s *CatalogService) HandleEvent(ctx context.Context, e events.Event) error {
	logger.LogDebug("catalog event %s %s %s", e.Type, e.Action, e.ResourceID)
	return s.Invalidate(ctx)
}

func (s *CatalogService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

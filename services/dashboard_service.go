package services

import (
	"context"
	"time"

	"flower_shop/models"
	"flower_shop/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardSummary struct {
	TotalProducts        int64           `json:"totalProducts"`
	TotalUsers           int64           `json:"totalUsers"`
	TotalCategories      int64           `json:"totalCategories"`
	TotalPromotions      int64           `json:"totalPromotions"`
	NewProductsThisMonth int64           `json:"newProductsThisMonth"`
	ActivePromotions     int             `json:"activePromotions"`
	TopCategory          *string         `json:"topCategory"`
	MostExpensiveProduct PricedProduct   `json:"mostExpensiveProduct"`
	BiggestPromotion     BiggestDiscount `json:"biggestPromotion"`
}

type PricedProduct struct {
	Name  *string         `json:"nombre"`
	Price decimal.Decimal `json:"precio"`
}

type BiggestDiscount struct {
	Name     *string         `json:"nombre"`
	Discount decimal.Decimal `json:"descuento"`
}

type DashboardService struct {
	db       *gorm.DB
	resolver *pricing.Resolver
}

func NewDashboardService(db *gorm.DB, resolver *pricing.Resolver) *DashboardService {
	return &DashboardService{db: db, resolver: resolver}
}

// Summary aggregates the admin home page figures as of now. A zero now
// means the current time.
func (s *DashboardService) Summary(ctx context.Context, now time.Time) (*DashboardSummary, error) {
	if now.IsZero() {
		now = time.Now()
	}
	db := s.db.WithContext(ctx)
	summary := &DashboardSummary{}

	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.Product{}, &summary.TotalProducts},
		{&models.User{}, &summary.TotalUsers},
		{&models.Category{}, &summary.TotalCategories},
		{&models.Promotion{}, &summary.TotalPromotions},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	local := now.In(s.resolver.Location())
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, local.Location())
	if err := db.Model(&models.Product{}).
		Where("created_at >= ?", monthStart.UTC()).
		Count(&summary.NewProductsThisMonth).Error; err != nil {
		return nil, err
	}

	var promotions []models.Promotion
	if err := db.Where("active = ?", true).Order("value DESC").Find(&promotions).Error; err != nil {
		return nil, err
	}
	for _, p := range promotions {
		if !s.resolver.IsPromotionActive(p, now) {
			continue
		}
		if summary.ActivePromotions == 0 {
			name := p.Name
			summary.BiggestPromotion = BiggestDiscount{Name: &name, Discount: p.Value}
		}
		summary.ActivePromotions++
	}

	var top struct {
		Name  string
		Total int64
	}
	if err := db.Table("categories").
		Select("categories.name AS name, COUNT(product_categories.product_id) AS total").
		Joins("JOIN product_categories ON product_categories.category_id = categories.id").
		Group("categories.id, categories.name").
		Order("total DESC").
		Limit(1).
		Scan(&top).Error; err != nil {
		return nil, err
	}
	if top.Total > 0 {
		summary.TopCategory = &top.Name
	}

	var expensive []models.Product
	if err := db.Where("active = ?", true).Order("price DESC").Limit(1).Find(&expensive).Error; err != nil {
		return nil, err
	}
	if len(expensive) == 1 {
		summary.MostExpensiveProduct = PricedProduct{Name: &expensive[0].Name, Price: expensive[0].Price}
	}

	return summary, nil
}

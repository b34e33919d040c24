package services

import (
	"context"
	"strings"

	"flower_shop/events"
	"flower_shop/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductFilter struct {
	CategoryID string
	Active     *bool
	// Query matches nombre or descripcion, case-insensitively.
	Query string
}

type ProductInput struct {
	Name         string          `json:"nombre" binding:"required"`
	Description  string          `json:"descripcion"`
	Price        decimal.Decimal `json:"precio"`
	Active       *bool           `json:"activo"`
	CategoryIDs  []string        `json:"categoryIds"`
	PromotionIDs []string        `json:"promotionIds"`
}

// ProductPatch updates only the fields that are present. Id lists, when
// present, replace the current associations.
type ProductPatch struct {
	Name         *string          `json:"nombre" binding:"omitempty,min=1"`
	Description  *string          `json:"descripcion"`
	Price        *decimal.Decimal `json:"precio"`
	Active       *bool            `json:"activo"`
	CategoryIDs  *[]string        `json:"categoryIds"`
	PromotionIDs *[]string        `json:"promotionIds"`
}

type ProductService struct {
	db      *gorm.DB
	catalog *CatalogService
}

func NewProductService(db *gorm.DB, catalog *CatalogService) *ProductService {
	return &ProductService{db: db, catalog: catalog}
}

func (s *ProductService) List(ctx context.Context, f ProductFilter) ([]ProductView, error) {
	query := s.withDetails(s.db.WithContext(ctx))

	if f.CategoryID != "" {
		query = query.Where("id IN (?)",
			s.db.Table("product_categories").Select("product_id").Where("category_id = ?", f.CategoryID))
	}
	if f.Active != nil {
		query = query.Where("active = ?", *f.Active)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var products []models.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}

	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = s.catalog.View(p)
	}
	return views, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*ProductView, error) {
	var p models.Product
	if err := s.withDetails(s.db.WithContext(ctx)).Preload("User").First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product")
	}
	view := s.catalog.View(p)
	return &view, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput, creatorID string) (*ProductView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("nombre is required")
	}
	if !in.Price.IsPositive() {
		return nil, invalidf("precio must be greater than zero")
	}

	p := models.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		Active:      true,
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if creatorID != "" {
		p.UserID = &creatorID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p.Categories, err = findCategories(tx, in.CategoryIDs); err != nil {
			return err
		}
		if p.Promotions, err = findPromotions(tx, in.PromotionIDs); err != nil {
			return err
		}
		return tx.Omit("Categories.*", "Promotions.*").Create(&p).Error
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Changed(ctx, events.ProductChanged, p.ID, "create")
	return s.Get(ctx, p.ID)
}

func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch) (*ProductView, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return notFound(err, "product")
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return invalidf("nombre is required")
			}
			updates["name"] = name
		}
		if patch.Description != nil {
			updates["description"] = strings.TrimSpace(*patch.Description)
		}
		if patch.Price != nil {
			if !patch.Price.IsPositive() {
				return invalidf("precio must be greater than zero")
			}
			updates["price"] = patch.Price.Round(2)
		}
		if patch.Active != nil {
			updates["active"] = *patch.Active
		}
		if len(updates) > 0 {
			if err := tx.Model(&p).Updates(updates).Error; err != nil {
				return err
			}
		}

		if patch.CategoryIDs != nil {
			categories, err := findCategories(tx, *patch.CategoryIDs)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx.Model(&p).Association("Categories"), categories); err != nil {
				return err
			}
		}
		if patch.PromotionIDs != nil {
			promotions, err := findPromotions(tx, *patch.PromotionIDs)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx.Model(&p).Association("Promotions"), promotions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Changed(ctx, events.ProductChanged, id, "update")
	return s.Get(ctx, id)
}

// Deactivate hides the product from the storefront. Products are never
// hard-deleted.
func (s *ProductService) Deactivate(ctx context.Context, id string) error {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return notFound(err, "product")
	}
	if err := s.db.WithContext(ctx).Model(&p).Update("active", false).Error; err != nil {
		return err
	}
	s.catalog.Changed(ctx, events.ProductChanged, id, "deactivate")
	return nil
}

func (s *ProductService) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Categories").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("principal DESC").Order("created_at ASC")
		}).
		Preload("Promotions")
}

func findCategories(tx *gorm.DB, ids []string) ([]models.Category, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, invalidf("unknown category id in %v", ids)
	}
	return categories, nil
}

func findPromotions(tx *gorm.DB, ids []string) ([]models.Promotion, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var promotions []models.Promotion
	if err := tx.Where("id IN ?", ids).Find(&promotions).Error; err != nil {
		return nil, err
	}
	if len(promotions) != len(ids) {
		return nil, invalidf("unknown promotion id in %v", ids)
	}
	return promotions, nil
}

func findProducts(tx *gorm.DB, ids []string) ([]models.Product, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		return nil, invalidf("unknown product id in %v", ids)
	}
	return products, nil
}

func replaceAssociation[T any](assoc *gorm.Association, values []T) error {
	if len(values) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

package services

import (
	"context"
	"strings"
	"time"

	"flower_shop/events"
	"flower_shop/models"
	"flower_shop/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxDiscount = decimal.NewFromInt(100)

// PromotionInput carries dates as ISO-8601 strings; date-only values are
// read in the resolver's location.
type PromotionInput struct {
	Name        string          `json:"nombre" binding:"required"`
	Description string          `json:"descripcion"`
	Value       decimal.Decimal `json:"valor"`
	StartDate   string          `json:"fecha_inicio" binding:"required"`
	EndDate     string          `json:"fecha_fin" binding:"required"`
	Active      *bool           `json:"activo"`
	ProductIDs  []string        `json:"products"`
}

type PromotionPatch struct {
	Name        *string          `json:"nombre" binding:"omitempty,min=1"`
	Description *string          `json:"descripcion"`
	Value       *decimal.Decimal `json:"valor"`
	StartDate   *string          `json:"fecha_inicio" binding:"omitempty,min=1"`
	EndDate     *string          `json:"fecha_fin" binding:"omitempty,min=1"`
	Active      *bool            `json:"activo"`
	ProductIDs  *[]string        `json:"products"`
}

type PromotionService struct {
	db       *gorm.DB
	resolver *pricing.Resolver
	catalog  *CatalogService
}

func NewPromotionService(db *gorm.DB, resolver *pricing.Resolver, catalog *CatalogService) *PromotionService {
	return &PromotionService{db: db, resolver: resolver, catalog: catalog}
}

func (s *PromotionService) List(ctx context.Context) ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := s.db.WithContext(ctx).
		Preload("Products").
		Order("created_at DESC").
		Find(&promotions).Error
	return promotions, err
}

// ListActive returns the promotions in force at now. A zero now means the
// current time.
func (s *PromotionService) ListActive(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	if now.IsZero() {
		now = time.Now()
	}
	var promotions []models.Promotion
	if err := s.db.WithContext(ctx).
		Preload("Products").
		Where("active = ?", true).
		Order("value DESC").
		Find(&promotions).Error; err != nil {
		return nil, err
	}

	active := make([]models.Promotion, 0, len(promotions))
	for _, p := range promotions {
		if s.resolver.IsPromotionActive(p, now) {
			active = append(active, p)
		}
	}
	return active, nil
}

func (s *PromotionService) Get(ctx context.Context, id string) (*models.Promotion, error) {
	var p models.Promotion
	if err := s.db.WithContext(ctx).Preload("Products").First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "promotion")
	}
	return &p, nil
}

func (s *PromotionService) Create(ctx context.Context, in PromotionInput) (*models.Promotion, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("nombre is required")
	}
	start, end, err := s.parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	if err := validateDiscount(in.Value); err != nil {
		return nil, err
	}

	p := models.Promotion{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Type:        models.Percentage,
		Value:       in.Value.Round(2),
		StartDate:   start,
		EndDate:     end,
		Active:      true,
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p.Products, err = findProducts(tx, in.ProductIDs); err != nil {
			return err
		}
		return tx.Omit("Products.*").Create(&p).Error
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Changed(ctx, events.PromotionChanged, p.ID, "create")
	return s.Get(ctx, p.ID)
}

// Update merges patch into the stored promotion; the merged promotion must
// still have start < end and a value within (0, 100).
func (s *PromotionService) Update(ctx context.Context, id string, patch PromotionPatch) (*models.Promotion, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Promotion
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return notFound(err, "promotion")
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
		if patch.Value != nil {
			if err := validateDiscount(*patch.Value); err != nil {
				return err
			}
			updates["value"] = patch.Value.Round(2)
		}
		if patch.Active != nil {
			updates["active"] = *patch.Active
		}

		start, end := p.StartDate, p.EndDate
		var err error
		if patch.StartDate != nil {
			if start, err = models.ParseDate(*patch.StartDate, s.resolver.Location()); err != nil {
				return invalidf("fecha_inicio: %v", err)
			}
			updates["start_date"] = start
		}
		if patch.EndDate != nil {
			if end, err = models.ParseDate(*patch.EndDate, s.resolver.Location()); err != nil {
				return invalidf("fecha_fin: %v", err)
			}
			updates["end_date"] = end
		}
		if !start.Before(end) {
			return invalidf("fecha_inicio must be before fecha_fin")
		}

		if len(updates) > 0 {
			if err := tx.Model(&p).Updates(updates).Error; err != nil {
				return err
			}
		}
		if patch.ProductIDs != nil {
			products, err := findProducts(tx, *patch.ProductIDs)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx.Model(&p).Association("Products"), products); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Changed(ctx, events.PromotionChanged, id, "update")
	return s.Get(ctx, id)
}

func (s *PromotionService) Deactivate(ctx context.Context, id string) error {
	var p models.Promotion
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return notFound(err, "promotion")
	}
	if err := s.db.WithContext(ctx).Model(&p).Update("active", false).Error; err != nil {
		return err
	}
	s.catalog.Changed(ctx, events.PromotionChanged, id, "deactivate")
	return nil
}

// ApplyToProducts attaches the promotion to every listed product. Pairs that
// already exist are left untouched.
func (s *PromotionService) ApplyToProducts(ctx context.Context, id string, productIDs []string) (*models.Promotion, error) {
	if len(uniqueIDs(productIDs)) == 0 {
		return nil, invalidf("productIds is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Promotion
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return notFound(err, "promotion")
		}
		products, err := findProducts(tx, productIDs)
		if err != nil {
			return err
		}
		return tx.Model(&p).Omit("Products.*").Association("Products").Append(products)
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Changed(ctx, events.PromotionChanged, id, "apply")
	return s.Get(ctx, id)
}

func (s *PromotionService) parseRange(startValue, endValue string) (time.Time, time.Time, error) {
	start, err := models.ParseDate(startValue, s.resolver.Location())
	if err != nil {
		return time.Time{}, time.Time{}, invalidf("fecha_inicio: %v", err)
	}
	end, err := models.ParseDate(endValue, s.resolver.Location())
	if err != nil {
		return time.Time{}, time.Time{}, invalidf("fecha_fin: %v", err)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, invalidf("fecha_inicio must be before fecha_fin")
	}
	return start, end, nil
}

func validateDiscount(v decimal.Decimal) error {
	if !v.IsPositive() || v.GreaterThanOrEqual(maxDiscount) {
		return invalidf("valor must be greater than 0 and less than 100")
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"flower_shop/events"
	"flower_shop/models"

	"gorm.io/gorm"
)

type CategoryInput struct {
	Name   string `json:"nombre" binding:"required"`
	Active *bool  `json:"activa"`
}

type CategoryPatch struct {
	Name   *string `json:"nombre" binding:"omitempty,min=1"`
	Active *bool   `json:"activa"`
}

type CategoryService struct {
	db      *gorm.DB
	catalog *CatalogService
}

func NewCategoryService(db *gorm.DB, catalog *CatalogService) *CategoryService {
	return &CategoryService{db: db, catalog: catalog}
}

// List includes a summary (id, nombre, activo) of each category's products.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "active", "price")
		}).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).Preload("Products").First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "category")
	}
	return &c, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("nombre is required")
	}
	if err := s.ensureUniqueName(ctx, name, ""); err != nil {
		return nil, err
	}

	c := models.Category{Name: name, Active: true}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	s.catalog.Changed(ctx, events.CategoryChanged, c.ID, "create")
	return &c, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, patch CategoryPatch) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "category")
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalidf("nombre is required")
		}
		if err := s.ensureUniqueName(ctx, name, id); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if patch.Active != nil {
		updates["active"] = *patch.Active
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&c).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	s.catalog.Changed(ctx, events.CategoryChanged, id, "update")
	return s.Get(ctx, id)
}

func (s *CategoryService) Deactivate(ctx context.Context, id string) error {
	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return notFound(err, "category")
	}
	if err := s.db.WithContext(ctx).Model(&c).Update("active", false).Error; err != nil {
		return err
	}
	s.catalog.Changed(ctx, events.CategoryChanged, id, "deactivate")
	return nil
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name, exceptID string) error {
	query := s.db.WithContext(ctx).Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("category %q: %w", name, ErrConflict)
	}
	return nil
}

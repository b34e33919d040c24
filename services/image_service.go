package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"flower_shop/events"
	"flower_shop/logger"
	"flower_shop/models"
	"flower_shop/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxImageBytes = 5 << 20

// UploadInput is the dashboard's upload form. Image is base64, optionally
// wrapped in a data: URL.
type UploadInput struct {
	Image     string `json:"image" binding:"required"`
	AltText   string `json:"alt_text"`
	Principal bool   `json:"principal"`
}

type ImageService struct {
	db      *gorm.DB
	objects storage.ObjectStore
	catalog *CatalogService
}

func NewImageService(db *gorm.DB, objects storage.ObjectStore, catalog *CatalogService) *ImageService {
	return &ImageService{db: db, objects: objects, catalog: catalog}
}

// List returns the principal image first, then the rest oldest first.
func (s *ImageService) List(ctx context.Context, productID string) ([]models.Image, error) {
	if err := s.productExists(ctx, productID); err != nil {
		return nil, err
	}
	var images []models.Image
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("principal DESC").
		Order("created_at ASC").
		Find(&images).Error
	return images, err
}

// Upload stores the image and records it. The first image of a product is
// always principal.
func (s *ImageService) Upload(ctx context.Context, productID string, in UploadInput) (*models.Image, error) {
	if err := s.productExists(ctx, productID); err != nil {
		return nil, err
	}

	data, err := decodeImage(in.Image)
	if err != nil {
		return nil, err
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, invalidf("unsupported image type %s", mtype.String())
	}

	key := fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), mtype.Extension())
	url, err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mtype.String())
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	img := models.Image{
		ProductID:   productID,
		URL:         url,
		AltText:     strings.TrimSpace(in.AltText),
		PublicID:    key,
		ContentType: mtype.String(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Image{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		img.Principal = in.Principal || count == 0
		if img.Principal && count > 0 {
			if err := clearPrincipal(tx, productID); err != nil {
				return err
			}
		}
		return tx.Create(&img).Error
	})
	if err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			logger.LogError("remove orphaned image %s: %v", key, derr)
		}
		return nil, err
	}

	s.catalog.Changed(ctx, events.ImageChanged, img.ID, "upload")
	return &img, nil
}

// SetMain makes imageID the only principal image of productID.
func (s *ImageService) SetMain(ctx context.Context, productID, imageID string) (*models.Image, error) {
	var img models.Image
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&img, "id = ? AND product_id = ?", imageID, productID).Error; err != nil {
			return notFound(err, "image")
		}
		if err := clearPrincipal(tx, productID); err != nil {
			return err
		}
		img.Principal = true
		return tx.Model(&img).Update("principal", true).Error
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Changed(ctx, events.ImageChanged, img.ID, "main")
	return &img, nil
}

// Delete removes the image; a removed principal is replaced by the oldest
// remaining image of the product.
func (s *ImageService) Delete(ctx context.Context, imageID string) error {
	var img models.Image
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&img, "id = ?", imageID).Error; err != nil {
			return notFound(err, "image")
		}
		if err := tx.Delete(&img).Error; err != nil {
			return err
		}
		if !img.Principal {
			return nil
		}

		var next models.Image
		err := tx.Where("product_id = ?", img.ProductID).Order("created_at ASC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("principal", true).Error
	})
	if err != nil {
		return err
	}

	if err := s.objects.Delete(ctx, img.PublicID); err != nil {
		logger.LogError("delete image object %s: %v", img.PublicID, err)
	}
	s.catalog.Changed(ctx, events.ImageChanged, img.ID, "delete")
	return nil
}

func (s *ImageService) productExists(ctx context.Context, productID string) error {
	var p models.Product
	if err := s.db.WithContext(ctx).Select("id").First(&p, "id = ?", productID).Error; err != nil {
		return notFound(err, "product")
	}
	return nil
}

func clearPrincipal(tx *gorm.DB, productID string) error {
	return tx.Model(&models.Image{}).
		Where("product_id = ? AND principal = ?", productID, true).
		Update("principal", false).Error
}

func decodeImage(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "data:") {
		comma := strings.IndexByte(value, ',')
		if comma < 0 || !strings.Contains(value[:comma], ";base64") {
			return nil, invalidf("image must be a base64 data URL")
		}
		value = value[comma+1:]
	}
	if value == "" {
		return nil, invalidf("image is required")
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(value); err != nil {
			return nil, invalidf("image is not valid base64")
		}
	}
	if len(data) > maxImageBytes {
		return nil, invalidf("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}

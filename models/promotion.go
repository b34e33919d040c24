package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PromotionType string

// Percentage is the only promotion type the storefront knows.
const Percentage PromotionType = "porcentaje"

// Promotion is a time-bounded percentage discount that can be attached to
// many products.
type Promotion struct {
	ID          string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string          `json:"nombre" gorm:"size:255;not null"`
	Description string          `json:"descripcion,omitempty" gorm:"type:text"`
	Type        PromotionType   `json:"tipo" gorm:"size:20;not null"`
	Value       decimal.Decimal `json:"valor" gorm:"type:decimal(5,2);not null"`
	StartDate   time.Time       `json:"fecha_inicio" gorm:"not null;index"`
	EndDate     time.Time       `json:"fecha_fin" gorm:"not null;index"`
	Active      bool            `json:"activo" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Products []Product `json:"products,omitempty" gorm:"many2many:product_promotions;"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is never hard-deleted; administrators deactivate it instead.
type Product struct {
	ID          string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string          `json:"nombre" gorm:"size:255;not null"`
	Description string          `json:"descripcion,omitempty" gorm:"type:text"`
	Price       decimal.Decimal `json:"precio" gorm:"type:decimal(10,2);not null"`
	Active      bool            `json:"activo" gorm:"not null;index"`
	UserID      *string         `json:"-" gorm:"type:varchar(36);index"`
	CreatedAt   time.Time       `json:"fechaCreacion"`
	UpdatedAt   time.Time       `json:"updated_at"`

	User       *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Categories []Category  `json:"categories" gorm:"many2many:product_categories;"`
	Images     []Image     `json:"images" gorm:"foreignKey:ProductID"`
	Promotions []Promotion `json:"promotions,omitempty" gorm:"many2many:product_promotions;"`
}

type Category struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name      string    `json:"nombre" gorm:"size:120;not null;uniqueIndex"`
	Active    bool      `json:"activa" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Products []Product `json:"products,omitempty" gorm:"many2many:product_categories;"`
}

// Image is a stored product picture. PublicID is the object key in the
// backing store.
type Image struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProductID   string    `json:"-" gorm:"type:varchar(36);not null;index"`
	URL         string    `json:"url" gorm:"size:512;not null"`
	AltText     string    `json:"alt_text" gorm:"size:255"`
	Principal   bool      `json:"principal" gorm:"not null"`
	PublicID    string    `json:"public_id" gorm:"size:255;not null"`
	ContentType string    `json:"-" gorm:"size:100"`
	CreatedAt   time.Time `json:"created_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// The storefront reads prices and discount values as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	if p.Type == "" {
		p.Type = Percentage
	}
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Promotion{},
		&Product{},
		&Image{},
	}
}

package models

import "time"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type User struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name      string    `json:"nombre" gorm:"size:120;not null"`
	LastName  string    `json:"apellido" gorm:"size:120"`
	Phone     string    `json:"telefono" gorm:"size:40"`
	Email     string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	Role      Role      `json:"rol" gorm:"size:10;not null"`
	Active    bool      `json:"activo" gorm:"not null"`
	CreatedAt time.Time `json:"fechaRegistro"`
	UpdatedAt time.Time `json:"updated_at"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:UserID"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

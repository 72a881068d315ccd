package domain

import "time"

// Wire values for User.Role. They match the values stored by earlier
// deployments, so existing rows keep working.
const (
	RoleAdmin       = "admin"
	RoleUser        = "usuario"
	RoleSalesperson = "vendedor"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleSalesperson:
		return true
	}
	return false
}

// User models an account that can sign in to the CRM.
type User struct {
	ID           uint      `json:"id"        gorm:"primaryKey"`
	Name         string    `json:"nombre"    gorm:"not null"`
	Email        string    `json:"email"     gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-"         gorm:"not null"`
	Role         string    `json:"rol"       gorm:"type:varchar(20);not null"`
	Active       bool      `json:"activo"    gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "usuarios" }

// Claims is the identity carried by a verified session credential.
type Claims struct {
	UserID    uint
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// Account is a gym member or staff identity.
type Account struct {
	ID                  uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email               string              `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash        string              `gorm:"column:password_hash;not null"`
	FirstName           string              `gorm:"column:first_name;not null"`
	LastName            string              `gorm:"column:last_name;not null"`
	Phone               *string             `gorm:"column:phone"`
	Role                enums.AccountRole   `gorm:"column:role;type:text;not null;default:'member'"`
	Status              enums.AccountStatus `gorm:"column:status;type:text;not null;default:'active'"`
	MemberID            *string             `gorm:"column:member_id;uniqueIndex"`
	GatewayCustomerCode *string             `gorm:"column:gateway_customer_code"`
	LastLoginAt         *time.Time          `gorm:"column:last_login_at"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

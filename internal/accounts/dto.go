package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// AccountDTO is the transport shape that omits credentials.
type AccountDTO struct {
	ID        uuid.UUID           `json:"id"`
	Email     string              `json:"email"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	Phone     *string             `json:"phone,omitempty"`
	Role      enums.AccountRole   `json:"role"`
	Status    enums.AccountStatus `json:"status"`
	MemberID  *string             `json:"memberId,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// RegisterInput holds the data needed to create a member account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
	Role      enums.AccountRole
}

func FromModel(a *models.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Phone:     a.Phone,
		Role:      a.Role,
		Status:    a.Status,
		MemberID:  a.MemberID,
		CreatedAt: a.CreatedAt,
	}
}

package payments

import (
	"time"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
)

// RegistrationData is supplied by first-time members at checkout.
type RegistrationData struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     *string
	StartDate *time.Time
}

// VerifyInput is the post-checkout verification request.
type VerifyInput struct {
	Reference    string
	Registration *RegistrationData
}

// VerifyResult carries the account the payment belongs to. AccessToken is
// only set when the account was created by this call.
type VerifyResult struct {
	Account      *models.Account
	Subscription *models.Subscription
	AccessToken  string
	ExpiresAt    time.Time
	Created      bool
	Replayed     bool
}

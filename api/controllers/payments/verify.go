package payments

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/gymhub-backend/api/responses"
	"github.com/angelmondragon/gymhub-backend/api/validators"
	"github.com/angelmondragon/gymhub-backend/internal/accounts"
	paymentsvc "github.com/angelmondragon/gymhub-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
)

// VerifyService is the checkout verification surface used by the controller.
type VerifyService interface {
	Verify(ctx context.Context, input paymentsvc.VerifyInput) (*paymentsvc.VerifyResult, error)
}

type verifyRequest struct {
	Reference        string               `json:"reference" validate:"required,max=200"`
	RegistrationData *registrationRequest `json:"registrationData"`
}

type registrationRequest struct {
	FirstName string  `json:"firstName" validate:"required,max=100"`
	LastName  string  `json:"lastName" validate:"required,max=100"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Password  string  `json:"password" validate:"required,max=200"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	StartDate *string `json:"startDate"`
}

type verifyResponse struct {
	User        *accounts.AccountDTO `json:"user"`
	AccessToken string               `json:"accessToken,omitempty"`
}

// Verify settles a hosted checkout by reference. A session cookie is set only
// when the call created the member's account.
func Verify(svc VerifyService, cookie SessionCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var body verifyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := paymentsvc.VerifyInput{Reference: strings.TrimSpace(body.Reference)}
		if body.RegistrationData != nil {
			reg, err := body.RegistrationData.toInput()
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Registration = reg
		}

		if logg != nil {
			ctx = logg.WithReference(ctx, input.Reference)
		}

		result, err := svc.Verify(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if result.AccessToken != "" {
			cookie.Write(w, result.AccessToken, result.ExpiresAt)
		}
		responses.WriteSuccess(w, verifyResponse{
			User:        accounts.FromModel(result.Account),
			AccessToken: result.AccessToken,
		})
	}
}

func (r *registrationRequest) toInput() (*paymentsvc.RegistrationData, error) {
	reg := &paymentsvc.RegistrationData{
		FirstName: validators.SanitizeString(r.FirstName, 100),
		LastName:  validators.SanitizeString(r.LastName, 100),
		Email:     strings.TrimSpace(r.Email),
		Password:  r.Password,
		Phone:     r.Phone,
	}
	if r.StartDate != nil && strings.TrimSpace(*r.StartDate) != "" {
		start, err := parseDate(*r.StartDate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid startDate").
				WithDetails(map[string]any{"startDate": "must be YYYY-MM-DD or RFC3339"})
		}
		reg.StartDate = &start
	}
	return reg, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}

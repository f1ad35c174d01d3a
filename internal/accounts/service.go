package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/gymhub-backend/pkg/config"
	"github.com/angelmondragon/gymhub-backend/pkg/db"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/security"
)

const memberIDAttempts = 5

// Service provisions accounts.
type Service interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// AttachCustomerCode records the gateway customer code the first time
	// one is seen for the account.
	AttachCustomerCode(ctx context.Context, account *models.Account, customerCode string) error
	// Register creates an account, or returns the existing one with
	// created=false when a concurrent request inserted the same email first.
	Register(ctx context.Context, input RegisterInput) (account *models.Account, created bool, err error)
}

type ServiceParams struct {
	Repo           Repository
	PasswordConfig config.PasswordConfig
}

type service struct {
	repo        Repository
	passwordCfg config.PasswordConfig
	newMemberID func() (string, error)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "accounts repo required")
	}
	return &service{
		repo:        params.Repo,
		passwordCfg: params.PasswordConfig,
		newMemberID: security.GenerateMemberID,
	}, nil
}

func (s *service) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}
	return account, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}
	return account, nil
}

func (s *service) AttachCustomerCode(ctx context.Context, account *models.Account, customerCode string) error {
	code := strings.TrimSpace(customerCode)
	if account == nil || code == "" {
		return nil
	}
	if account.GatewayCustomerCode != nil && *account.GatewayCustomerCode != "" {
		return nil
	}
	if err := s.repo.UpdateCustomerCode(ctx, account.ID, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach customer code")
	}
	account.GatewayCustomerCode = &code
	return nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Account, bool, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if input.Password == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	role := input.Role
	if role == "" {
		role = enums.AccountRoleMember
	}
	if !role.IsValid() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "invalid account role")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	for attempt := 0; attempt < memberIDAttempts; attempt++ {
		account := &models.Account{
			Email:        email,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(input.FirstName),
			LastName:     strings.TrimSpace(input.LastName),
			Phone:        input.Phone,
			Role:         role,
			Status:       enums.AccountStatusActive,
		}
		if role == enums.AccountRoleMember {
			memberID, err := s.newMemberID()
			if err != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate member id")
			}
			account.MemberID = &memberID
		}

		err = s.repo.Create(ctx, account)
		if err == nil {
			return account, true, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
		}

		// Either the email or the member id collided; the email case means
		// another path provisioned this account first.
		existing, findErr := s.repo.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reload account after conflict")
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	return nil, false, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique member id")
}

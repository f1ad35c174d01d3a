package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// AccessTokenPayload is what the issuer knows about the member at login.
type AccessTokenPayload struct {
	AccountID uuid.UUID
	Role      enums.AccountRole
	MemberID  *string
	JTI       string
}

// AccessTokenClaims is the JWT body. The jti doubles as the server-side
// session id so a token can be revoked before it expires.
type AccessTokenClaims struct {
	AccountID uuid.UUID         `json:"account_id"`
	Role      enums.AccountRole `json:"role"`
	MemberID  *string           `json:"member_id,omitempty"`
	jwt.RegisteredClaims
}

package middleware

import "context"

// Principal is the authenticated caller, taken from a verified access token.
type Principal struct {
	AccountID string
	Role      string
	MemberID  string
	AccessID  string
}

type principalKey struct{}

// WithPrincipal stores p on ctx for downstream handlers.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller and whether the request was authenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func AccountIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.AccountID
}

func RoleFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Role
}

func MemberIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.MemberID
}

// AccessIDFromContext returns the session id (token jti) of the request.
func AccessIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.AccessID
}

// WithAccountID, WithRole and WithAccessID set a single principal field. They
// exist for handler tests that bypass Auth.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	p, _ := PrincipalFromContext(ctx)
	p.AccountID = accountID
	return WithPrincipal(ctx, p)
}

func WithRole(ctx context.Context, role string) context.Context {
	p, _ := PrincipalFromContext(ctx)
	p.Role = role
	return WithPrincipal(ctx, p)
}

func WithAccessID(ctx context.Context, accessID string) context.Context {
	p, _ := PrincipalFromContext(ctx)
	p.AccessID = accessID
	return WithPrincipal(ctx, p)
}

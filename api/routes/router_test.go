package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	paymentsvc "github.com/angelmondragon/gymhub-backend/internal/payments"
	"github.com/angelmondragon/gymhub-backend/internal/plans"
	"github.com/angelmondragon/gymhub-backend/internal/refunds"
	paystackwebhook "github.com/angelmondragon/gymhub-backend/internal/webhooks/paystack"
	pkgAuth "github.com/angelmondragon/gymhub-backend/pkg/auth"
	"github.com/angelmondragon/gymhub-backend/pkg/auth/session"
	"github.com/angelmondragon/gymhub-backend/pkg/config"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAccounts struct{}

func (stubAccounts) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return &models.Account{ID: id, Email: "ada@example.com", Role: enums.AccountRoleMember}, nil
}

type stubPlans struct {
	creates int
}

func (s *stubPlans) Create(ctx context.Context, input plans.CreatePlanInput) (*models.Plan, error) {
	s.creates++
	return &models.Plan{ID: uuid.New(), Name: input.Name, Status: enums.PlanStatusActive}, nil
}

func (s *stubPlans) Update(ctx context.Context, id uuid.UUID, input plans.UpdatePlanInput) (*models.Plan, error) {
	return &models.Plan{ID: id}, nil
}

func (s *stubPlans) Deactivate(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	return &models.Plan{ID: id, Status: enums.PlanStatusInactive}, nil
}

func (s *stubPlans) ListActive(ctx context.Context) ([]models.Plan, error) {
	return nil, nil
}

type stubVerify struct{}

func (stubVerify) Verify(ctx context.Context, input paymentsvc.VerifyInput) (*paymentsvc.VerifyResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment not successful")
}

type stubRefunds struct{}

func (stubRefunds) Refund(ctx context.Context, input refunds.Input) (*refunds.Result, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
}

type stubWebhooks struct{}

func (stubWebhooks) HandleEvent(ctx context.Context, event paystackwebhook.Event) error {
	return nil
}

type stubGuard struct{}

func (stubGuard) CheckAndMark(ctx context.Context, key string) (bool, error) { return false, nil }
func (stubGuard) Release(ctx context.Context, key string) error { return nil }

type memoryStore struct {
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "gym:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "dev"},
		JWT:     config.JWTConfig{Secret: "secret", Issuer: "gymhub", ExpirationMinutes: 60},
		Session: config.SessionConfig{CookieName: "gymhub_session", MaxAge: 24 * time.Hour},
	}
}

func newTestRouter(t *testing.T, planSvc *stubPlans) http.Handler {
	t.Helper()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "# metrics")
	})
	return NewRouter(
		testConfig(),
		nil,
		stubPinger{},
		stubPinger{},
		&memoryStore{data: map[string]string{}},
		stubSessionManager{},
		metrics,
		stubAccounts{},
		planSvc,
		stubVerify{},
		stubRefunds{},
		stubWebhooks{},
		"sk_test",
		stubGuard{},
		nil,
	)
}

func tokenFor(t *testing.T, role enums.AccountRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      role,
		JTI:       session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterPublicRoutes(t *testing.T) {
	router := newTestRouter(t, &stubPlans{})

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health/live", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/plans", "", http.StatusOK},
		{http.MethodPost, "/api/v1/payments/verify", `{"reference":"ref_1"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/webhooks/paystack", `{"event":"charge.success"}`, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/me", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d got %d (%s)", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestRouterAdminRoutesRequireAdminRole(t *testing.T) {
	planSvc := &stubPlans{}
	router := newTestRouter(t, planSvc)
	body := `{"name":"Gold","amount":100,"interval":"monthly"}`

	cases := map[string]struct {
		token string
		want  int
	}{
		"anonymous":  {token: "", want: http.StatusUnauthorized},
		"member":     {token: tokenFor(t, enums.AccountRoleMember), want: http.StatusForbidden},
		"admin":      {token: tokenFor(t, enums.AccountRoleAdmin), want: http.StatusCreated},
		"superadmin": {token: tokenFor(t, enums.AccountRoleSuperAdmin), want: http.StatusCreated},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/plans", strings.NewReader(body))
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouterReplaysIdempotentAdminWrites(t *testing.T) {
	planSvc := &stubPlans{}
	router := newTestRouter(t, planSvc)
	token := tokenFor(t, enums.AccountRoleAdmin)
	body := `{"name":"Gold","amount":100,"interval":"monthly"}`

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/plans", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "create-gold")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d", i, rec.Code)
		}
	}
	if planSvc.creates != 1 {
		t.Fatalf("expected a single create, got %d", planSvc.creates)
	}
}

func TestRouterSessionCookieAuthenticates(t *testing.T) {
	router := newTestRouter(t, &stubPlans{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: "gymhub_session", Value: tokenFor(t, enums.AccountRoleMember)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
}

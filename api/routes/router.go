package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gymhub-backend/api/controllers"
	billingcontrollers "github.com/angelmondragon/gymhub-backend/api/controllers/billing"
	paymentcontrollers "github.com/angelmondragon/gymhub-backend/api/controllers/payments"
	webhookcontrollers "github.com/angelmondragon/gymhub-backend/api/controllers/webhooks"
	"github.com/angelmondragon/gymhub-backend/api/middleware"
	"github.com/angelmondragon/gymhub-backend/pkg/auth/session"
	"github.com/angelmondragon/gymhub-backend/pkg/config"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Revoke(context.Context, string) error
}

type accountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type webhookRecorder interface {
	Inc(event, outcome string)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	sessionManager sessionManager,
	metricsHandler http.Handler,
	accountService accountFinder,
	planService billingcontrollers.PlanService,
	verifyService paymentcontrollers.VerifyService,
	refundService billingcontrollers.RefundService,
	webhookService webhookcontrollers.PaystackWebhookService,
	webhookSecret string,
	guard webhookGuard,
	webhookMetrics webhookRecorder,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	cookie := paymentcontrollers.NewSessionCookie(cfg.App, cfg.Session)
	auth := middleware.Auth(cfg.JWT, cookie.Name, sessionManager, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisP,
		}))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paystack", webhookcontrollers.PaystackWebhook(webhookService, webhookSecret, guard, webhookMetrics, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", billingcontrollers.PlansList(planService, logg))
		r.Post("/payments/verify", paymentcontrollers.Verify(verifyService, cookie, logg))

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/me", controllers.Me(accountService, logg))
			r.Post("/auth/logout", controllers.AuthLogout(sessionManager, cookie, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(auth)
		r.Use(middleware.RequireAnyRole(logg, enums.AccountRoleAdmin, enums.AccountRoleSuperAdmin))

		planWrite := r.With(middleware.Idempotency(idempotencyStore, middleware.PlanWriteTTL, logg))
		refundWrite := r.With(middleware.Idempotency(idempotencyStore, middleware.RefundTTL, logg))

		planWrite.Post("/plans", billingcontrollers.AdminPlanCreate(planService, logg))
		r.Patch("/plans/{planId}", billingcontrollers.AdminPlanUpdate(planService, logg))
		r.Delete("/plans/{planId}", billingcontrollers.AdminPlanDelete(planService, logg))
		refundWrite.Post("/transactions/{transactionId}/refund", billingcontrollers.AdminTransactionRefund(refundService, logg))
	})

	return r
}

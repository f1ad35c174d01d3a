package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/gymhub-backend/api/responses"
	paystackwebhook "github.com/angelmondragon/gymhub-backend/internal/webhooks/paystack"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
	"github.com/angelmondragon/gymhub-backend/pkg/metrics"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

const (
	maxWebhookBody    int64 = 1 << 20
	unknownEventLabel       = "unknown"
)

type PaystackWebhookService interface {
	HandleEvent(ctx context.Context, event paystackwebhook.Event) error
}

type paystackWebhookGuard interface {
	CheckAndMark(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type webhookRecorder interface {
	Inc(event, outcome string)
}

type syncedResponse struct {
	Synced bool `json:"synced"`
}

type rejectedResponse struct {
	Error string `json:"error"`
}

// PaystackWebhook authenticates, decodes and routes gateway events. The
// gateway only inspects the status code, so responses use a bare JSON body.
func PaystackWebhook(svc PaystackWebhookService, secret string, guard paystackWebhookGuard, recorder webhookRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || guard == nil || strings.TrimSpace(secret) == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook handler unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			reject(ctx, w, recorder, logg, unknownEventLabel, metrics.OutcomeRejected, "unreadable body")
			return
		}
		if len(payload) == 0 {
			reject(ctx, w, recorder, logg, unknownEventLabel, metrics.OutcomeRejected, "empty body")
			return
		}

		signature := strings.TrimSpace(r.Header.Get(paystack.SignatureHeader))
		if signature == "" {
			reject(ctx, w, recorder, logg, unknownEventLabel, metrics.OutcomeRejected, "missing signature")
			return
		}
		if !paystack.VerifySignature(secret, payload, signature) {
			reject(ctx, w, recorder, logg, unknownEventLabel, metrics.OutcomeRejected, "invalid signature")
			return
		}

		event, err := paystackwebhook.Decode(payload)
		if err != nil {
			reject(ctx, w, recorder, logg, unknownEventLabel, metrics.OutcomeRejected, publicMessage(err))
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"event": event.Name()})
		}
		if _, ok := event.(paystackwebhook.UnknownEvent); ok {
			reject(ctx, w, recorder, logg, event.Name(), metrics.OutcomeUnsupported, "unsupported event type")
			return
		}

		key := event.DedupKey()
		duplicate, err := guard.CheckAndMark(ctx, key)
		if err != nil {
			// Handlers are replay-safe; carry on without dedup rather than
			// make the gateway retry.
			if logg != nil {
				logg.Warn(ctx, "webhook dedup unavailable: "+err.Error())
			}
		} else if duplicate {
			record(recorder, event.Name(), metrics.OutcomeDuplicate)
			responses.WriteJSON(w, http.StatusOK, syncedResponse{Synced: true})
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			if releaseErr := guard.Release(ctx, key); releaseErr != nil && logg != nil {
				logg.Warn(ctx, "webhook dedup release failed: "+releaseErr.Error())
			}
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				reject(ctx, w, recorder, logg, event.Name(), metrics.OutcomeRejected, publicMessage(err))
				return
			}
			record(recorder, event.Name(), metrics.OutcomeFailed)
			if logg != nil {
				logg.Error(ctx, "webhook handling failed", err)
			}
			responses.WriteJSON(w, http.StatusInternalServerError, rejectedResponse{Error: "internal error"})
			return
		}

		record(recorder, event.Name(), metrics.OutcomeProcessed)
		if logg != nil {
			logg.Info(ctx, "webhook processed")
		}
		responses.WriteJSON(w, http.StatusOK, syncedResponse{Synced: true})
	}
}

func reject(ctx context.Context, w http.ResponseWriter, recorder webhookRecorder, logg *logger.Logger, event, outcome, msg string) {
	record(recorder, event, outcome)
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{"outcome": outcome}), "webhook rejected: "+msg)
	}
	responses.WriteJSON(w, http.StatusBadRequest, rejectedResponse{Error: msg})
}

func record(recorder webhookRecorder, event, outcome string) {
	if recorder != nil {
		recorder.Inc(event, outcome)
	}
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return "invalid payload"
}

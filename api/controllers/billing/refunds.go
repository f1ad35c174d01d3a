package billing

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/api/middleware"
	"github.com/angelmondragon/gymhub-backend/api/responses"
	"github.com/angelmondragon/gymhub-backend/api/validators"
	billingsvc "github.com/angelmondragon/gymhub-backend/internal/billing"
	"github.com/angelmondragon/gymhub-backend/internal/refunds"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
)

type RefundService interface {
	Refund(ctx context.Context, input refunds.Input) (*refunds.Result, error)
}

type refundRequest struct {
	Reason string           `json:"reason" validate:"required,max=500"`
	Amount *decimal.Decimal `json:"amount"`
}

type refundResponse struct {
	Transaction *billingsvc.TransactionDTO `json:"transaction"`
	Refund      *billingsvc.TransactionDTO `json:"refund"`
}

// AdminTransactionRefund refunds a successful transaction in full or in part.
func AdminTransactionRefund(svc RefundService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		transactionID, err := validators.ParseUUIDParam(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload refundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := refunds.Input{
			TransactionID: transactionID,
			Reason:        validators.SanitizeString(payload.Reason, 500),
			Amount:        payload.Amount,
		}
		if actor, err := uuid.Parse(middleware.AccountIDFromContext(ctx)); err == nil {
			input.ActorID = &actor
		}

		result, err := svc.Refund(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, refundResponse{
			Transaction: billingsvc.TransactionFromModel(result.Transaction),
			Refund:      billingsvc.TransactionFromModel(result.Refund),
		})
	}
}

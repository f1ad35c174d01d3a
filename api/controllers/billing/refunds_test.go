package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/api/middleware"
	"github.com/angelmondragon/gymhub-backend/internal/refunds"
	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
)

type stubRefundService struct {
	input  *refunds.Input
	result *refunds.Result
	err    error
}

func (s *stubRefundService) Refund(ctx context.Context, input refunds.Input) (*refunds.Result, error) {
	s.input = &input
	return s.result, s.err
}

func refundRequestFor(id, body, actor string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/transactions/"+id+"/refund", bytes.NewReader([]byte(body)))
	req = withURLParam(req, "transactionId", id)
	if actor != "" {
		req = req.WithContext(middleware.WithAccountID(req.Context(), actor))
	}
	return req
}

func TestAdminTransactionRefund(t *testing.T) {
	txnID := uuid.New()
	admin := uuid.New()
	original := &models.Transaction{ID: txnID, Reference: "ref_1", Amount: decimal.NewFromInt(5000), Status: enums.TransactionStatusRefunded, Type: enums.TransactionTypeSubscription}
	refund := &models.Transaction{ID: uuid.New(), Reference: "ref_1-RF", Amount: decimal.NewFromInt(2000), Status: enums.TransactionStatusSuccess, Type: enums.TransactionTypeRefund}
	service := &stubRefundService{result: &refunds.Result{Transaction: original, Refund: refund}}

	rec := httptest.NewRecorder()
	AdminTransactionRefund(service, nil).ServeHTTP(rec, refundRequestFor(txnID.String(), `{"reason":"  double charge ","amount":"2000"}`, admin.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.input.TransactionID != txnID || service.input.Reason != "double charge" {
		t.Fatalf("unexpected input %+v", service.input)
	}
	if service.input.Amount == nil || !service.input.Amount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected partial amount, got %v", service.input.Amount)
	}
	if service.input.ActorID == nil || *service.input.ActorID != admin {
		t.Fatalf("expected actor %s, got %v", admin, service.input.ActorID)
	}

	var envelope struct {
		Data struct {
			Transaction struct {
				Status string `json:"status"`
			} `json:"transaction"`
			Refund struct {
				Reference string `json:"reference"`
				Type      string `json:"type"`
			} `json:"refund"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Transaction.Status != "refunded" || envelope.Data.Refund.Reference != "ref_1-RF" || envelope.Data.Refund.Type != "refund" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAdminTransactionRefundValidation(t *testing.T) {
	cases := map[string]struct {
		id   string
		body string
	}{
		"bad id":         {id: "not-a-uuid", body: `{"reason":"x"}`},
		"missing reason": {id: uuid.NewString(), body: `{}`},
		"bad amount":     {id: uuid.NewString(), body: `{"reason":"x","amount":"lots"}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			service := &stubRefundService{}
			rec := httptest.NewRecorder()
			AdminTransactionRefund(service, nil).ServeHTTP(rec, refundRequestFor(tc.id, tc.body, ""))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if service.input != nil {
				t.Fatal("service must not be called")
			}
		})
	}
}

func TestAdminTransactionRefundMapsServiceErrors(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeNotFound:      http.StatusNotFound,
		pkgerrors.CodeConflict:      http.StatusBadRequest,
		pkgerrors.CodeStateConflict: http.StatusUnprocessableEntity,
		pkgerrors.CodeUpstream:      http.StatusBadGateway,
	}
	for code, want := range cases {
		service := &stubRefundService{err: pkgerrors.New(code, "nope")}
		rec := httptest.NewRecorder()
		AdminTransactionRefund(service, nil).ServeHTTP(rec, refundRequestFor(uuid.NewString(), `{"reason":"x"}`, ""))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", code, want, rec.Code)
		}
	}
}

package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	paystackwebhook "github.com/angelmondragon/gymhub-backend/internal/webhooks/paystack"
	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/metrics"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

const testSecret = "sk_test_webhook"

func TestPaystackWebhook_SuccessAndIdempotent(t *testing.T) {
	service := &fakeWebhookService{}
	recorder := &fakeRecorder{}
	handler := PaystackWebhook(service, testSecret, newGuard(t), recorder, nil)

	payload := chargeSuccessPayload("ref_123")
	rec := serve(handler, payload, paystack.Sign(testSecret, payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	assertSynced(t, rec)
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	replay := serve(handler, payload, paystack.Sign(testSecret, payload))
	if replay.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d", replay.Code)
	}
	assertSynced(t, replay)
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
	if recorder.count(paystackwebhook.EventChargeSuccess, metrics.OutcomeDuplicate) != 1 {
		t.Fatalf("expected duplicate to be counted, got %v", recorder.seen)
	}
}

func TestPaystackWebhook_RejectsBadSignature(t *testing.T) {
	payload := chargeSuccessPayload("ref_123")
	cases := map[string]string{
		"missing":  "",
		"mismatch": paystack.Sign("other-secret", payload),
	}
	for name, signature := range cases {
		t.Run(name, func(t *testing.T) {
			service := &fakeWebhookService{}
			rec := serve(PaystackWebhook(service, testSecret, newGuard(t), nil, nil), payload, signature)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body rejectedResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Fatalf("expected error body, got %s", rec.Body.String())
			}
			if service.calls != 0 {
				t.Fatal("service should not be invoked")
			}
		})
	}
}

func TestPaystackWebhook_RejectsUnknownEvent(t *testing.T) {
	service := &fakeWebhookService{}
	recorder := &fakeRecorder{}
	payload := []byte(`{"event":"invoice.create","data":{"id":1}}`)

	rec := serve(PaystackWebhook(service, testSecret, newGuard(t), recorder, nil), payload, paystack.Sign(testSecret, payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatal("unknown events must not reach the service")
	}
	if recorder.count("invoice.create", metrics.OutcomeUnsupported) != 1 {
		t.Fatalf("expected unsupported outcome, got %v", recorder.seen)
	}
}

func TestPaystackWebhook_RejectsMalformedPayload(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{}}`)
	rec := serve(PaystackWebhook(&fakeWebhookService{}, testSecret, newGuard(t), nil, nil), payload, paystack.Sign(testSecret, payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPaystackWebhook_FailureReleasesGuard(t *testing.T) {
	service := &fakeWebhookService{errs: []error{errors.New("db down"), nil}}
	handler := PaystackWebhook(service, testSecret, newGuard(t), nil, nil)
	payload := chargeSuccessPayload("ref_retry")

	first := serve(handler, payload, paystack.Sign(testSecret, payload))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", first.Code)
	}

	second := serve(handler, payload, paystack.Sign(testSecret, payload))
	if second.Code != http.StatusOK {
		t.Fatalf("expected retry to be processed, got %d", second.Code)
	}
	if service.calls != 2 {
		t.Fatalf("expected two handler runs, got %d", service.calls)
	}
}

func TestPaystackWebhook_ValidationFailureIs400(t *testing.T) {
	service := &fakeWebhookService{errs: []error{pkgerrors.New(pkgerrors.CodeValidation, "unsupported event type")}}
	payload := chargeSuccessPayload("ref_bad")
	rec := serve(PaystackWebhook(service, testSecret, newGuard(t), nil, nil), payload, paystack.Sign(testSecret, payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func serve(handler http.HandlerFunc, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func assertSynced(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	var body syncedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || !body.Synced {
		t.Fatalf("expected {synced:true}, got %s", rec.Body.String())
	}
}

func chargeSuccessPayload(reference string) []byte {
	return []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":99,"reference":%q,"status":"success","amount":500000,"currency":"NGN","customer":{"email":"ada@example.com"}}}`, reference))
}

func newGuard(t *testing.T) *paystackwebhook.IdempotencyGuard {
	t.Helper()
	guard, err := paystackwebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

type fakeWebhookService struct {
	calls int
	errs  []error
}

func (f *fakeWebhookService) HandleEvent(ctx context.Context, event paystackwebhook.Event) error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakeRecorder struct {
	seen []string
}

func (f *fakeRecorder) Inc(event, outcome string) {
	f.seen = append(f.seen, event+"/"+outcome)
}

func (f *fakeRecorder) count(event, outcome string) int {
	n := 0
	for _, s := range f.seen {
		if s == event+"/"+outcome {
			n++
		}
	}
	return n
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("gym:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/pkg/config"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(
		config.PaystackConfig{SecretKey: "sk_test_123", RetryAttempts: 2},
		nil,
		WithBaseURL("http://paystack.test"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithRetry(2, time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresSecret(t *testing.T) {
	if _, err := NewClient(config.PaystackConfig{SecretKey: "  "}, nil); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}

func TestVerifyTransactionParsesPayload(t *testing.T) {
	const body = `{"status":true,"message":"Verification successful","data":{
		"id":4099260516,"reference":"TXN_1","status":"success","amount":1500000,"currency":"NGN",
		"channel":"card","paid_at":"2024-03-01T10:00:00.000Z",
		"customer":{"id":181873746,"customer_code":"CUS_abc","email":"ada@example.com"},
		"authorization":{"authorization_code":"AUTH_xyz","last4":"4081","channel":"card","reusable":true},
		"plan":"PLN_gold","plan_object":{"id":1716,"plan_code":"PLN_gold"},
		"metadata":"{\"transaction_type\":\"subscription\"}"}}`

	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, body), nil
	})

	txn, err := client.VerifyTransaction(context.Background(), "TXN_1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if captured.URL.String() != "http://paystack.test/transaction/verify/TXN_1" {
		t.Fatalf("unexpected url %s", captured.URL)
	}
	if captured.Header.Get("Authorization") != "Bearer sk_test_123" {
		t.Fatalf("missing bearer auth")
	}
	if !txn.Successful() {
		t.Fatalf("expected success status, got %q", txn.Status)
	}
	if !txn.Amount.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("expected major-unit amount 15000, got %s", txn.Amount)
	}
	if txn.PlanCode != "PLN_gold" || txn.PlanID != 1716 {
		t.Fatalf("unexpected plan ref %q/%d", txn.PlanCode, txn.PlanID)
	}
	if txn.Customer.ID != 181873746 || txn.Authorization.AuthorizationCode != "AUTH_xyz" {
		t.Fatalf("unexpected customer/authorization %+v %+v", txn.Customer, txn.Authorization)
	}
	if txn.Metadata["transaction_type"] != "subscription" {
		t.Fatalf("string-encoded metadata not decoded: %+v", txn.Metadata)
	}
	if txn.PaidAt == nil {
		t.Fatalf("expected paid_at")
	}
}

func TestReadsRetryServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return jsonResponse(http.StatusBadGateway, `{"status":false,"message":"upstream"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"ok","data":{"id":1,"customer_code":"CUS_1","email":"a@b.c"}}`), nil
	})

	customer, err := client.FetchCustomer(context.Background(), "CUS_1")
	if err != nil {
		t.Fatalf("fetch customer: %v", err)
	}
	if customer.CustomerCode != "CUS_1" {
		t.Fatalf("unexpected customer %+v", customer)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestReadsDoNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusNotFound, `{"status":false,"message":"Transaction reference not found"}`), nil
	})

	_, err := client.VerifyTransaction(context.Background(), "missing")
	perr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Kind != KindClient || perr.Retryable() || !IsNotFound(err) {
		t.Fatalf("unexpected classification %+v", perr)
	}
	if perr.Message != "Transaction reference not found" {
		t.Fatalf("unexpected message %q", perr.Message)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", got)
	}
}

func TestWritesAreNeverRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("connection reset")
	})

	_, err := client.ChargeAuthorization(context.Background(), ChargeAuthorizationParams{
		Email:             "ada@example.com",
		Amount:            decimal.NewFromInt(5000),
		AuthorizationCode: "AUTH_xyz",
		Reference:         "TXN_1-REG",
	})
	perr, ok := AsError(err)
	if !ok || perr.Kind != KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("writes must not be retried, got %d calls", got)
	}
}

func TestStatusFalseIsClientError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"status":false,"message":"Invalid plan"}`), nil
	})

	_, err := client.CreatePlan(context.Background(), PlanParams{Name: "Gold", Amount: decimal.NewFromInt(100), Interval: enums.BillingIntervalMonthly})
	perr, ok := AsError(err)
	if !ok || perr.Kind != KindClient {
		t.Fatalf("expected client error, got %v", err)
	}
	if strings.Contains(perr.Error(), "{") {
		t.Fatalf("raw body leaked into error: %s", perr.Error())
	}
}

func TestCreatePlanSendsMinorUnits(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		var payload map[string]any
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["amount"].(float64) != 1250050 {
			t.Fatalf("expected minor amount 1250050, got %v", payload["amount"])
		}
		if payload["interval"] != "annually" {
			t.Fatalf("unexpected interval %v", payload["interval"])
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Plan created","data":{"id":77,"plan_code":"PLN_x","name":"Gold","amount":1250050,"interval":"annually","currency":"NGN"}}`), nil
	})

	plan, err := client.CreatePlan(context.Background(), PlanParams{
		Name:     "Gold",
		Amount:   decimal.RequireFromString("12500.50"),
		Interval: enums.BillingIntervalAnnually,
		Currency: "NGN",
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if plan.ID != 77 || plan.PlanCode != "PLN_x" || !plan.Amount.Equal(decimal.RequireFromString("12500.5")) {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestFetchSubscriptionByPlanAndCustomerPicksNewest(t *testing.T) {
	const body = `{"status":true,"message":"ok","data":[
		{"id":1,"subscription_code":"SUB_old","email_token":"tok_old","status":"cancelled","amount":500000,"createdAt":"2024-01-01T00:00:00.000Z","plan":{"id":9,"plan_code":"PLN_gold"},"customer":{"id":5}},
		{"id":2,"subscription_code":"SUB_new","email_token":"tok_new","status":"active","amount":500000,"next_payment_date":"2024-04-01T00:00:00.000Z","createdAt":"2024-03-01T00:00:00.000Z","plan":{"id":9,"plan_code":"PLN_gold"},"customer":{"id":5}}
	]}`
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("plan") != "9" || req.URL.Query().Get("customer") != "5" {
			t.Fatalf("unexpected filters %s", req.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, body), nil
	})

	sub, err := client.FetchSubscriptionByPlanAndCustomer(context.Background(), 9, 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if sub == nil || sub.SubscriptionCode != "SUB_new" || sub.EmailToken != "tok_new" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.NextPaymentDate == nil || sub.PlanCode != "PLN_gold" {
		t.Fatalf("expected next payment date and plan code, got %+v", sub)
	}
}

func TestFetchSubscriptionByPlanAndCustomerEmpty(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"status":true,"message":"ok","data":[]}`), nil
	})
	sub, err := client.FetchSubscriptionByPlanAndCustomer(context.Background(), 9, 5)
	if err != nil || sub != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", sub, err)
	}
}

func TestCreateRefundPartialAmount(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		var payload map[string]any
		_ = json.NewDecoder(req.Body).Decode(&payload)
		if payload["transaction"] != "TXN_1" || payload["amount"].(float64) != 250000 {
			t.Fatalf("unexpected refund payload %v", payload)
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Refund has been queued","data":{"id":3,"transaction":{"reference":"TXN_1"},"amount":250000,"currency":"NGN","status":"pending"}}`), nil
	})

	amount := decimal.NewFromInt(2500)
	refund, err := client.CreateRefund(context.Background(), RefundParams{Reference: "TXN_1", Amount: &amount, Note: "duplicate"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund.Failed() || !refund.Amount.Equal(amount) || refund.Reference != "TXN_1" {
		t.Fatalf("unexpected refund %+v", refund)
	}
}

func TestRedactHidesSensitiveFields(t *testing.T) {
	if redact("authorization_code", "AUTH_1") != "[REDACTED]" {
		t.Fatal("authorization should be redacted")
	}
	if redact("path", "customer/ada@example.com") != "[REDACTED]" {
		t.Fatal("email-bearing values should be redacted")
	}
	if redact("status", 200) != 200 {
		t.Fatal("plain fields should pass through")
	}
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveRequest(op, outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, op+":"+outcome)
}

func TestObserverSeesEveryAttempt(t *testing.T) {
	var calls int32
	obs := &recordingObserver{}
	client, err := NewClient(
		config.PaystackConfig{SecretKey: "sk_test_123"},
		nil,
		WithBaseURL("http://paystack.test"),
		WithRetry(1, time.Millisecond),
		WithObserver(obs),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return jsonResponse(http.StatusInternalServerError, `{"status":false,"message":"boom"}`), nil
			}
			return jsonResponse(http.StatusOK, `{"status":true,"message":"ok","data":{"id":1,"plan_code":"PLN_x"}}`), nil
		})}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.FetchPlan(context.Background(), "PLN_x"); err != nil {
		t.Fatalf("fetch plan: %v", err)
	}
	if len(obs.outcomes) != 2 || !strings.HasSuffix(obs.outcomes[0], ":server") || !strings.HasSuffix(obs.outcomes[1], ":ok") {
		t.Fatalf("unexpected observations %v", obs.outcomes)
	}
}

func TestDecodeSubscriptionWebhookShape(t *testing.T) {
	raw := json.RawMessage(`{"domain":"test","status":"active","subscription_code":"SUB_vsyqdmlzble3uii",
		"email_token":"d7gofp6yppn3qz7","amount":50000,"next_payment_date":"2016-05-19T07:00:00.000Z",
		"createdAt":"2016-03-20T00:23:24.000Z","plan":{"id":1716,"plan_code":"PLN_gx2wn530m0i3w3m"},
		"customer":{"id":1173,"customer_code":"CUS_xnxdt6s1zg1f4nx","email":"bojack@horsinaround.com"}}`)

	sub, err := DecodeSubscription(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.SubscriptionCode != "SUB_vsyqdmlzble3uii" || sub.EmailToken != "d7gofp6yppn3qz7" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.PlanCode != "PLN_gx2wn530m0i3w3m" || sub.PlanID != 1716 {
		t.Fatalf("unexpected plan ref %q/%d", sub.PlanCode, sub.PlanID)
	}
	if sub.Customer.Email != "bojack@horsinaround.com" || sub.NextPaymentDate == nil {
		t.Fatalf("unexpected customer or next date %+v", sub)
	}
	if !sub.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected 500 major units, got %s", sub.Amount)
	}

	if _, err := DecodeSubscription(json.RawMessage(`[`)); err == nil {
		t.Fatal("expected malformed payload to fail")
	}
}

func decodeBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return payload
}

func expectRoute(t *testing.T, req *http.Request, method, path string) {
	t.Helper()
	if req.Method != method || req.URL.Path != path {
		t.Fatalf("expected %s %s, got %s %s", method, path, req.Method, req.URL.Path)
	}
}

func TestChargeAuthorizationSendsMinorUnits(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		expectRoute(t, req, http.MethodPost, "/transaction/charge_authorization")
		payload := decodeBody(t, req)
		if payload["amount"].(float64) != 500000 {
			t.Fatalf("expected minor amount 500000, got %v", payload["amount"])
		}
		if payload["authorization_code"] != "AUTH_xyz" || payload["reference"] != "TXN_1-REG" || payload["currency"] != "NGN" {
			t.Fatalf("unexpected charge payload %v", payload)
		}
		if payload["email"] != "ada@example.com" {
			t.Fatalf("expected trimmed email, got %v", payload["email"])
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Charge attempted","data":{"id":9,"reference":"TXN_1-REG","status":"success","amount":500000,"currency":"NGN"}}`), nil
	})

	txn, err := client.ChargeAuthorization(context.Background(), ChargeAuthorizationParams{
		Email:             " ada@example.com ",
		Amount:            decimal.NewFromInt(5000),
		AuthorizationCode: "AUTH_xyz",
		Reference:         "TXN_1-REG",
		Currency:          "NGN",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !txn.Successful() || !txn.Amount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected transaction %+v", txn)
	}
}

func TestChargeAuthorizationRequiresCode(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected without an authorization code")
		return nil, nil
	})
	_, err := client.ChargeAuthorization(context.Background(), ChargeAuthorizationParams{Email: "ada@example.com", Amount: decimal.NewFromInt(5000)})
	if e, ok := AsError(err); !ok || e.Kind != KindClient {
		t.Fatalf("expected client error, got %v", err)
	}
}

func TestInitializeTransactionSendsMinorUnits(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		expectRoute(t, req, http.MethodPost, "/transaction/initialize")
		payload := decodeBody(t, req)
		if payload["amount"].(float64) != 1500000 {
			t.Fatalf("expected minor amount 1500000, got %v", payload["amount"])
		}
		if payload["plan"] != "PLN_gold" || payload["reference"] != "TXN_2" || payload["callback_url"] != "https://gym.test/return" {
			t.Fatalf("unexpected initialize payload %v", payload)
		}
		meta, _ := payload["metadata"].(map[string]any)
		if meta["transaction_type"] != "subscription" {
			t.Fatalf("expected metadata to be forwarded, got %v", payload["metadata"])
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"TXN_2"}}`), nil
	})

	checkout, err := client.InitializeTransaction(context.Background(), InitializeParams{
		Email:       "ada@example.com",
		Amount:      decimal.NewFromInt(15000),
		Reference:   "TXN_2",
		PlanCode:    "PLN_gold",
		CallbackURL: "https://gym.test/return",
		Metadata:    map[string]any{"transaction_type": "subscription"},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if checkout.AuthorizationURL != "https://checkout.paystack.com/abc" || checkout.AccessCode != "abc" || checkout.Reference != "TXN_2" {
		t.Fatalf("unexpected checkout %+v", checkout)
	}
}

func TestUpdatePlanSendsMinorUnits(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		expectRoute(t, req, http.MethodPut, "/plan/PLN_gold")
		payload := decodeBody(t, req)
		if payload["amount"].(float64) != 2000000 {
			t.Fatalf("expected minor amount 2000000, got %v", payload["amount"])
		}
		if payload["name"] != "Gold Plus" || payload["interval"] != "monthly" {
			t.Fatalf("unexpected plan payload %v", payload)
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Plan updated. 0 subscription(s) will be affected"}`), nil
	})

	err := client.UpdatePlan(context.Background(), " PLN_gold ", PlanParams{
		Name:     "Gold Plus",
		Amount:   decimal.NewFromInt(20000),
		Interval: enums.BillingIntervalMonthly,
		Currency: "NGN",
	})
	if err != nil {
		t.Fatalf("update plan: %v", err)
	}
}

func TestDeletePlan(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		expectRoute(t, req, http.MethodDelete, "/plan/1716")
		return jsonResponse(http.StatusNotFound, `{"status":false,"message":"Plan not found"}`), nil
	})

	err := client.DeletePlan(context.Background(), "1716")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestCreateSubscriptionSendsStartDate(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		expectRoute(t, req, http.MethodPost, "/subscription")
		payload := decodeBody(t, req)
		if payload["customer"] != "CUS_abc" || payload["plan"] != "PLN_gold" || payload["authorization"] != "AUTH_xyz" {
			t.Fatalf("unexpected subscription payload %v", payload)
		}
		if payload["start_date"] != "2024-04-01T00:00:00Z" {
			t.Fatalf("unexpected start date %v", payload["start_date"])
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Subscription successfully created","data":{"id":12,"subscription_code":"SUB_new","email_token":"tok_new","status":"active","amount":1500000,"next_payment_date":"2024-04-01T00:00:00.000Z","createdAt":"2024-03-01T00:00:00.000Z","plan":1716,"customer":181873746}}`), nil
	})

	sub, err := client.CreateSubscription(context.Background(), SubscriptionParams{
		Customer:      "CUS_abc",
		PlanCode:      "PLN_gold",
		Authorization: "AUTH_xyz",
		StartDate:     &start,
	})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.SubscriptionCode != "SUB_new" || sub.EmailToken != "tok_new" || sub.PlanID != 1716 {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if !sub.Amount.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("expected 15000 major units, got %s", sub.Amount)
	}
}

func TestGetSubscriptionDecodesMajorUnits(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		expectRoute(t, req, http.MethodGet, "/subscription/SUB_new")
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Subscription retrieved","data":{"id":12,"subscription_code":"SUB_new","email_token":"tok_new","status":"non-renewing","amount":1250050,"next_payment_date":"2024-05-01T00:00:00.000Z","createdAt":"2024-03-01T00:00:00.000Z","plan":{"id":1716,"plan_code":"PLN_gold"},"customer":{"id":181873746,"customer_code":"CUS_abc","email":"ada@example.com"}}}`), nil
	})

	sub, err := client.GetSubscription(context.Background(), "SUB_new")
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if sub.Status != "non-renewing" || sub.PlanCode != "PLN_gold" || sub.Customer.CustomerCode != "CUS_abc" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if !sub.Amount.Equal(decimal.RequireFromString("12500.5")) {
		t.Fatalf("expected 12500.5 major units, got %s", sub.Amount)
	}
	if sub.NextPaymentDate == nil || !sub.NextPaymentDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next payment date %v", sub.NextPaymentDate)
	}
}

func TestToggleSubscription(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		toggle func(*Client) error
	}{
		{
			name: "enable",
			path: "/subscription/enable",
			toggle: func(c *Client) error {
				return c.EnableSubscription(context.Background(), "SUB_new", "tok_new")
			},
		},
		{
			name: "disable",
			path: "/subscription/disable",
			toggle: func(c *Client) error {
				return c.DisableSubscription(context.Background(), "SUB_new", "tok_new")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
				expectRoute(t, req, http.MethodPost, tc.path)
				payload := decodeBody(t, req)
				if payload["code"] != "SUB_new" || payload["token"] != "tok_new" {
					t.Fatalf("unexpected toggle payload %v", payload)
				}
				return jsonResponse(http.StatusOK, `{"status":true,"message":"Subscription updated"}`), nil
			})
			if err := tc.toggle(client); err != nil {
				t.Fatalf("%s: %v", tc.name, err)
			}
		})
	}
}

func TestGetRefundDecodesMajorUnits(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		expectRoute(t, req, http.MethodGet, "/refund/3")
		if atomic.AddInt32(&calls, 1) == 1 {
			return jsonResponse(http.StatusBadGateway, `{"status":false,"message":"upstream"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"Refund retrieved","data":{"id":3,"transaction":{"reference":"TXN_1"},"amount":250050,"currency":"NGN","status":"processed","createdAt":"2024-03-02T00:00:00.000Z"}}`), nil
	})

	refund, err := client.GetRefund(context.Background(), "3")
	if err != nil {
		t.Fatalf("get refund: %v", err)
	}
	if refund.ID != 3 || refund.Reference != "TXN_1" || refund.Status != "processed" {
		t.Fatalf("unexpected refund %+v", refund)
	}
	if !refund.Amount.Equal(decimal.RequireFromString("2500.5")) {
		t.Fatalf("expected 2500.5 major units, got %s", refund.Amount)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected the read to be retried once, got %d attempts", calls)
	}
}

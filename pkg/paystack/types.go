package paystack

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

// Gateway-side statuses the engine reacts to.
const (
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
	TransactionStatusAbandon = "abandoned"

	RefundStatusFailed = "failed"
)

// Customer is the gateway's view of a payer.
type Customer struct {
	ID           int64  `json:"id"`
	CustomerCode string `json:"customer_code"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
}

// Authorization is a reusable card/bank mandate.
type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	Bin               string `json:"bin"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Channel           string `json:"channel"`
	CardType          string `json:"card_type"`
	Bank              string `json:"bank"`
	Reusable          bool   `json:"reusable"`
	Signature         string `json:"signature"`
}

// Summary returns a non-sensitive description safe to persist.
func (a Authorization) Summary() map[string]any {
	return map[string]any{
		"channel":   a.Channel,
		"card_type": strings.TrimSpace(a.CardType),
		"bank":      a.Bank,
		"last4":     a.Last4,
		"reusable":  a.Reusable,
	}
}

// Plan is a gateway plan with its amount in major units.
type Plan struct {
	ID          int64
	PlanCode    string
	Name        string
	Description string
	Amount      decimal.Decimal
	Interval    enums.BillingInterval
	Currency    string
}

// PlanParams describes a plan create or update.
type PlanParams struct {
	Name        string
	Description string
	Amount      decimal.Decimal
	Interval    enums.BillingInterval
	Currency    string
}

// InitializeParams starts a hosted checkout.
type InitializeParams struct {
	Email       string
	Amount      decimal.Decimal
	Reference   string
	PlanCode    string
	CallbackURL string
	Metadata    map[string]any
}

// Checkout is the result of InitializeTransaction.
type Checkout struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the authoritative result of a verify or charge call.
type Transaction struct {
	ID              int64
	Reference       string
	Status          string
	Amount          decimal.Decimal
	Currency        string
	Channel         string
	GatewayResponse string
	PaidAt          *time.Time
	Customer        Customer
	Authorization   Authorization
	PlanCode        string
	PlanID          int64
	Metadata        map[string]any
}

// Successful reports whether the gateway settled the transaction.
func (t Transaction) Successful() bool {
	return t.Status == TransactionStatusSuccess
}

// ChargeAuthorizationParams charges a stored authorization.
type ChargeAuthorizationParams struct {
	Email             string
	Amount            decimal.Decimal
	AuthorizationCode string
	Reference         string
	Currency          string
	Metadata          map[string]any
}

// SubscriptionParams creates a subscription for an existing customer.
type SubscriptionParams struct {
	Customer      string
	PlanCode      string
	Authorization string
	StartDate     *time.Time
}

// Subscription is a gateway subscription.
type Subscription struct {
	ID               int64
	SubscriptionCode string
	EmailToken       string
	Status           string
	Amount           decimal.Decimal
	NextPaymentDate  *time.Time
	CreatedAt        time.Time
	PlanCode         string
	PlanID           int64
	Customer         Customer
}

// RefundParams requests a full or partial refund. A nil Amount refunds the
// whole transaction.
type RefundParams struct {
	Reference string
	Amount    *decimal.Decimal
	Note      string
}

// Refund is a gateway refund record.
type Refund struct {
	ID        int64
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Status    string
	CreatedAt time.Time
}

// Failed reports whether the gateway rejected the refund outright.
func (r Refund) Failed() bool {
	return r.Status == RefundStatusFailed
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type planPayload struct {
	ID          int64  `json:"id"`
	PlanCode    string `json:"plan_code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Interval    string `json:"interval"`
	Currency    string `json:"currency"`
}

func (p planPayload) toPlan() Plan {
	interval, _ := enums.ParseBillingInterval(p.Interval)
	return Plan{
		ID:          p.ID,
		PlanCode:    p.PlanCode,
		Name:        p.Name,
		Description: p.Description,
		Amount:      FromMinor(p.Amount),
		Interval:    interval,
		Currency:    p.Currency,
	}
}

type transactionPayload struct {
	ID              int64           `json:"id"`
	Reference       string          `json:"reference"`
	Status          string          `json:"status"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Channel         string          `json:"channel"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          *time.Time      `json:"paid_at"`
	Customer        Customer        `json:"customer"`
	Authorization   Authorization   `json:"authorization"`
	Plan            json.RawMessage `json:"plan"`
	PlanObject      json.RawMessage `json:"plan_object"`
	Metadata        json.RawMessage `json:"metadata"`
}

func (p transactionPayload) toTransaction() Transaction {
	code, id := decodePlanRef(p.PlanObject)
	if code == "" {
		code, id = decodePlanRef(p.Plan)
	}
	return Transaction{
		ID:              p.ID,
		Reference:       p.Reference,
		Status:          p.Status,
		Amount:          FromMinor(p.Amount),
		Currency:        p.Currency,
		Channel:         p.Channel,
		GatewayResponse: p.GatewayResponse,
		PaidAt:          p.PaidAt,
		Customer:        p.Customer,
		Authorization:   p.Authorization,
		PlanCode:        code,
		PlanID:          id,
		Metadata:        DecodeMetadata(p.Metadata),
	}
}

type subscriptionPayload struct {
	ID               int64           `json:"id"`
	SubscriptionCode string          `json:"subscription_code"`
	EmailToken       string          `json:"email_token"`
	Status           string          `json:"status"`
	Amount           int64           `json:"amount"`
	NextPaymentDate  *time.Time      `json:"next_payment_date"`
	CreatedAt        time.Time       `json:"createdAt"`
	Plan             json.RawMessage `json:"plan"`
	Customer         json.RawMessage `json:"customer"`
}

func (p subscriptionPayload) toSubscription() Subscription {
	code, id := decodePlanRef(p.Plan)
	return Subscription{
		ID:               p.ID,
		SubscriptionCode: p.SubscriptionCode,
		EmailToken:       p.EmailToken,
		Status:           p.Status,
		Amount:           FromMinor(p.Amount),
		NextPaymentDate:  p.NextPaymentDate,
		CreatedAt:        p.CreatedAt,
		PlanCode:         code,
		PlanID:           id,
		Customer:         decodeCustomerRef(p.Customer),
	}
}

type refundPayload struct {
	ID          int64           `json:"id"`
	Transaction json.RawMessage `json:"transaction"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (p refundPayload) toRefund() Refund {
	var ref struct {
		Reference string `json:"reference"`
	}
	_ = json.Unmarshal(p.Transaction, &ref)
	return Refund{
		ID:        p.ID,
		Reference: ref.Reference,
		Amount:    FromMinor(p.Amount),
		Currency:  p.Currency,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

// DecodeMetadata tolerates the gateway's habit of sending metadata as an
// object, a JSON-encoded string, or an empty string.
func DecodeMetadata(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err == nil {
		return out
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil && encoded != "" {
		_ = json.Unmarshal([]byte(encoded), &out)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// decodePlanRef reads a plan that may be a code string, an integer id, an
// object, or absent.
func decodePlanRef(raw json.RawMessage) (string, int64) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", 0
	}
	var code string
	if err := json.Unmarshal(raw, &code); err == nil {
		return code, 0
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return "", id
	}
	var obj struct {
		ID       int64  `json:"id"`
		PlanCode string `json:"plan_code"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.PlanCode, obj.ID
	}
	return "", 0
}

func decodeCustomerRef(raw json.RawMessage) Customer {
	var c Customer
	if len(raw) == 0 {
		return c
	}
	if err := json.Unmarshal(raw, &c); err == nil {
		return c
	}
	_ = json.Unmarshal(raw, &c.ID)
	return c
}

// DecodeTransaction parses a transaction object as the gateway sends it in
// API responses and webhook payloads.
func DecodeTransaction(raw json.RawMessage) (Transaction, error) {
	var p transactionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Transaction{}, err
	}
	return p.toTransaction(), nil
}

// DecodeSubscription parses a subscription object as the gateway sends it in
// API responses and webhook payloads.
func DecodeSubscription(raw json.RawMessage) (Subscription, error) {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Subscription{}, err
	}
	return p.toSubscription(), nil
}

package paystack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type initializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Reference   string         `json:"reference,omitempty"`
	Plan        string         `json:"plan,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type chargeAuthorizationRequest struct {
	Email             string         `json:"email"`
	Amount            int64          `json:"amount"`
	AuthorizationCode string         `json:"authorization_code"`
	Reference         string         `json:"reference,omitempty"`
	Currency          string         `json:"currency,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// InitializeTransaction creates a hosted checkout session.
func (c *Client) InitializeTransaction(ctx context.Context, params InitializeParams) (*Checkout, error) {
	req := initializeRequest{
		Email:       strings.TrimSpace(params.Email),
		Amount:      ToMinor(params.Amount),
		Reference:   params.Reference,
		Plan:        params.PlanCode,
		CallbackURL: params.CallbackURL,
		Metadata:    params.Metadata,
	}
	var checkout Checkout
	if err := c.send(ctx, "initialize_transaction", http.MethodPost, "transaction/initialize", req, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// VerifyTransaction returns the gateway's authoritative view of a reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, &Error{Kind: KindClient, Op: "verify_transaction", Message: "reference is required"}
	}
	path := fmt.Sprintf("transaction/verify/%s", url.PathEscape(reference))
	var payload transactionPayload
	if err := c.get(ctx, "verify_transaction", path, nil, &payload); err != nil {
		return nil, err
	}
	txn := payload.toTransaction()
	return &txn, nil
}

// ChargeAuthorization debits a stored authorization. Reusing a reference the
// gateway has already seen fails instead of charging twice.
func (c *Client) ChargeAuthorization(ctx context.Context, params ChargeAuthorizationParams) (*Transaction, error) {
	if strings.TrimSpace(params.AuthorizationCode) == "" {
		return nil, &Error{Kind: KindClient, Op: "charge_authorization", Message: "authorization code is required"}
	}
	req := chargeAuthorizationRequest{
		Email:             strings.TrimSpace(params.Email),
		Amount:            ToMinor(params.Amount),
		AuthorizationCode: params.AuthorizationCode,
		Reference:         params.Reference,
		Currency:          params.Currency,
		Metadata:          params.Metadata,
	}
	var payload transactionPayload
	if err := c.send(ctx, "charge_authorization", http.MethodPost, "transaction/charge_authorization", req, &payload); err != nil {
		return nil, err
	}
	txn := payload.toTransaction()
	return &txn, nil
}

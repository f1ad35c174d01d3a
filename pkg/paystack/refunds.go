package paystack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type refundRequest struct {
	Transaction  string `json:"transaction"`
	Amount       int64  `json:"amount,omitempty"`
	MerchantNote string `json:"merchant_note,omitempty"`
}

// CreateRefund refunds a settled transaction in full or in part.
func (c *Client) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	reference := strings.TrimSpace(params.Reference)
	if reference == "" {
		return nil, &Error{Kind: KindClient, Op: "create_refund", Message: "transaction reference is required"}
	}
	req := refundRequest{Transaction: reference, MerchantNote: params.Note}
	if params.Amount != nil {
		req.Amount = ToMinor(*params.Amount)
	}
	var payload refundPayload
	if err := c.send(ctx, "create_refund", http.MethodPost, "refund", req, &payload); err != nil {
		return nil, err
	}
	refund := payload.toRefund()
	if refund.Reference == "" {
		refund.Reference = reference
	}
	return &refund, nil
}

// GetRefund loads a refund by id.
func (c *Client) GetRefund(ctx context.Context, id string) (*Refund, error) {
	path := fmt.Sprintf("refund/%s", url.PathEscape(strings.TrimSpace(id)))
	var payload refundPayload
	if err := c.get(ctx, "get_refund", path, nil, &payload); err != nil {
		return nil, err
	}
	refund := payload.toRefund()
	return &refund, nil
}

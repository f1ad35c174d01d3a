package paystack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type planRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Interval    string `json:"interval,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

func newPlanRequest(params PlanParams) planRequest {
	req := planRequest{
		Name:        strings.TrimSpace(params.Name),
		Description: params.Description,
		Interval:    params.Interval.String(),
		Currency:    params.Currency,
	}
	if params.Amount.IsPositive() {
		req.Amount = ToMinor(params.Amount)
	}
	return req
}

// CreatePlan registers a plan on the gateway.
func (c *Client) CreatePlan(ctx context.Context, params PlanParams) (*Plan, error) {
	var payload planPayload
	if err := c.send(ctx, "create_plan", http.MethodPost, "plan", newPlanRequest(params), &payload); err != nil {
		return nil, err
	}
	plan := payload.toPlan()
	return &plan, nil
}

// UpdatePlan changes a plan's name, amount or interval. Existing gateway
// subscriptions keep their original amount.
func (c *Client) UpdatePlan(ctx context.Context, idOrCode string, params PlanParams) error {
	path := fmt.Sprintf("plan/%s", url.PathEscape(strings.TrimSpace(idOrCode)))
	return c.send(ctx, "update_plan", http.MethodPut, path, newPlanRequest(params), nil)
}

// DeletePlan removes a plan from the gateway catalog.
func (c *Client) DeletePlan(ctx context.Context, idOrCode string) error {
	path := fmt.Sprintf("plan/%s", url.PathEscape(strings.TrimSpace(idOrCode)))
	return c.send(ctx, "delete_plan", http.MethodDelete, path, nil, nil)
}

// FetchPlan loads a plan by numeric id or plan code.
func (c *Client) FetchPlan(ctx context.Context, idOrCode string) (*Plan, error) {
	path := fmt.Sprintf("plan/%s", url.PathEscape(strings.TrimSpace(idOrCode)))
	var payload planPayload
	if err := c.get(ctx, "fetch_plan", path, nil, &payload); err != nil {
		return nil, err
	}
	plan := payload.toPlan()
	return &plan, nil
}

package paystack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type subscriptionRequest struct {
	Customer      string `json:"customer"`
	Plan          string `json:"plan"`
	Authorization string `json:"authorization,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
}

type subscriptionToggleRequest struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}

// CreateSubscription subscribes a customer to a plan.
func (c *Client) CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error) {
	req := subscriptionRequest{
		Customer:      strings.TrimSpace(params.Customer),
		Plan:          strings.TrimSpace(params.PlanCode),
		Authorization: params.Authorization,
	}
	if params.StartDate != nil {
		req.StartDate = params.StartDate.UTC().Format(time.RFC3339)
	}
	var payload subscriptionPayload
	if err := c.send(ctx, "create_subscription", http.MethodPost, "subscription", req, &payload); err != nil {
		return nil, err
	}
	sub := payload.toSubscription()
	return &sub, nil
}

// GetSubscription loads a subscription by id or code.
func (c *Client) GetSubscription(ctx context.Context, idOrCode string) (*Subscription, error) {
	path := fmt.Sprintf("subscription/%s", url.PathEscape(strings.TrimSpace(idOrCode)))
	var payload subscriptionPayload
	if err := c.get(ctx, "get_subscription", path, nil, &payload); err != nil {
		return nil, err
	}
	sub := payload.toSubscription()
	return &sub, nil
}

// EnableSubscription re-activates a subscription using its email token.
func (c *Client) EnableSubscription(ctx context.Context, code, emailToken string) error {
	return c.send(ctx, "enable_subscription", http.MethodPost, "subscription/enable", subscriptionToggleRequest{Code: code, Token: emailToken}, nil)
}

// DisableSubscription stops future charges on a subscription.
func (c *Client) DisableSubscription(ctx context.Context, code, emailToken string) error {
	return c.send(ctx, "disable_subscription", http.MethodPost, "subscription/disable", subscriptionToggleRequest{Code: code, Token: emailToken}, nil)
}

// FetchSubscriptionByPlanAndCustomer returns the newest gateway subscription
// for the plan and customer, or nil when the gateway has not created one yet.
func (c *Client) FetchSubscriptionByPlanAndCustomer(ctx context.Context, planID, customerID int64) (*Subscription, error) {
	query := url.Values{}
	query.Set("plan", strconv.FormatInt(planID, 10))
	query.Set("customer", strconv.FormatInt(customerID, 10))
	query.Set("perPage", "20")

	var payloads []subscriptionPayload
	if err := c.get(ctx, "list_subscriptions", "subscription", query, &payloads); err != nil {
		return nil, err
	}

	var newest *Subscription
	for _, p := range payloads {
		sub := p.toSubscription()
		if sub.SubscriptionCode == "" {
			continue
		}
		if newest == nil || sub.CreatedAt.After(newest.CreatedAt) {
			picked := sub
			newest = &picked
		}
	}
	return newest, nil
}

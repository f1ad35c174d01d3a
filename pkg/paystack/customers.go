package paystack

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// FetchCustomer loads a customer by email or customer code.
func (c *Client) FetchCustomer(ctx context.Context, emailOrCode string) (*Customer, error) {
	path := fmt.Sprintf("customer/%s", url.PathEscape(strings.TrimSpace(emailOrCode)))
	var customer Customer
	if err := c.get(ctx, "fetch_customer", path, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

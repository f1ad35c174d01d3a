package billing

import (
	"strings"
	"time"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

// PatchFromGateway copies the gateway's view of a subscription onto sub and
// reports whether anything changed. Patches only move forward: an assigned
// subscription code is never replaced, and a gateway-confirmed billing date
// is only replaced by a later gateway date.
func PatchFromGateway(sub *models.Subscription, gw paystack.Subscription) bool {
	if sub == nil {
		return false
	}
	changed := false

	if code := strings.TrimSpace(gw.SubscriptionCode); code != "" && sub.Provisional() {
		sub.SubscriptionCode = &code
		changed = true
	}
	if token := strings.TrimSpace(gw.EmailToken); token != "" && (sub.EmailToken == nil || *sub.EmailToken != token) {
		sub.EmailToken = &token
		changed = true
	}
	if cc := strings.TrimSpace(gw.Customer.CustomerCode); cc != "" && (sub.CustomerCode == nil || *sub.CustomerCode == "") {
		sub.CustomerCode = &cc
		changed = true
	}
	if id := gw.Customer.ID; id != 0 && (sub.CustomerID == nil || *sub.CustomerID == 0) {
		sub.CustomerID = &id
		changed = true
	}
	if next := gw.NextPaymentDate; next != nil && !next.IsZero() {
		if !sub.NextBillingConfirmed || next.After(sub.NextBillingDate) {
			sub.NextBillingDate = next.UTC()
			sub.NextBillingConfirmed = true
			changed = true
		}
	}
	return changed
}

// GatewayPatch carries the subscription columns owned by the gateway.
type GatewayPatch struct {
	SubscriptionCode string
	EmailToken       string
	CustomerCode     string
	CustomerID       int64
	NextBillingDate  *time.Time
}

// GatewayPatchFor extracts the gateway-owned columns from a gateway subscription.
func GatewayPatchFor(gw paystack.Subscription) GatewayPatch {
	return GatewayPatch{
		SubscriptionCode: strings.TrimSpace(gw.SubscriptionCode),
		EmailToken:       strings.TrimSpace(gw.EmailToken),
		CustomerCode:     strings.TrimSpace(gw.Customer.CustomerCode),
		CustomerID:       gw.Customer.ID,
		NextBillingDate:  gw.NextPaymentDate,
	}
}

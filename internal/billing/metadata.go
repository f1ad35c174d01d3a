package billing

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"github.com/angelmondragon/gymhub-backend/pkg/db/models"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

// gatewayMetadata keeps the gateway identifiers worth auditing next to the
// ledger row. Card details are reduced to the authorization summary.
func gatewayMetadata(gw paystack.Transaction) datatypes.JSON {
	meta := map[string]any{}
	if gw.ID != 0 {
		meta["gateway_transaction_id"] = gw.ID
	}
	if resp := strings.TrimSpace(gw.GatewayResponse); resp != "" {
		meta["gateway_response"] = resp
	}
	if gw.PlanCode != "" {
		meta["plan_code"] = gw.PlanCode
	}
	if gw.Customer.CustomerCode != "" {
		meta["customer_code"] = gw.Customer.CustomerCode
	}
	if gw.Authorization.Last4 != "" || gw.Authorization.Channel != "" {
		meta["authorization"] = gw.Authorization.Summary()
	}
	return MetadataJSON(meta)
}

// MetadataJSON encodes arbitrary audit fields for a ledger row.
func MetadataJSON(fields map[string]any) datatypes.JSON {
	if len(fields) == 0 {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

// PlanCodeOf returns the gateway plan code recorded on a ledger row, or "".
func PlanCodeOf(txn *models.Transaction) string {
	if txn == nil || len(txn.Metadata) == 0 {
		return ""
	}
	var meta struct {
		PlanCode string `json:"plan_code"`
	}
	if err := json.Unmarshal(txn.Metadata, &meta); err != nil {
		return ""
	}
	return strings.TrimSpace(meta.PlanCode)
}

package paystackwebhook

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/angelmondragon/gymhub-backend/pkg/errors"
	"github.com/angelmondragon/gymhub-backend/pkg/paystack"
)

// Gateway event names.
const (
	EventChargeSuccess          = "charge.success"
	EventSubscriptionCreate     = "subscription.create"
	EventSubscriptionDisable    = "subscription.disable"
	EventSubscriptionNotRenewal = "subscription.not_renew"
)

// Event is a decoded webhook delivery. Each variant carries only the payload
// its handler needs.
type Event interface {
	Name() string
	// DedupKey identifies the delivery for idempotency purposes.
	DedupKey() string
}

type ChargeSuccessEvent struct {
	Transaction paystack.Transaction
}

func (e ChargeSuccessEvent) Name() string     { return EventChargeSuccess }
func (e ChargeSuccessEvent) DedupKey() string { return EventChargeSuccess + ":" + e.Transaction.Reference }

type SubscriptionCreatedEvent struct {
	Subscription paystack.Subscription
}

func (e SubscriptionCreatedEvent) Name() string { return EventSubscriptionCreate }
func (e SubscriptionCreatedEvent) DedupKey() string {
	return EventSubscriptionCreate + ":" + e.Subscription.SubscriptionCode
}

type SubscriptionDisabledEvent struct {
	Subscription paystack.Subscription
}

func (e SubscriptionDisabledEvent) Name() string { return EventSubscriptionDisable }
func (e SubscriptionDisabledEvent) DedupKey() string {
	return EventSubscriptionDisable + ":" + e.Subscription.SubscriptionCode
}

type SubscriptionNotRenewingEvent struct {
	Subscription paystack.Subscription
}

func (e SubscriptionNotRenewingEvent) Name() string { return EventSubscriptionNotRenewal }
func (e SubscriptionNotRenewingEvent) DedupKey() string {
	return EventSubscriptionNotRenewal + ":" + e.Subscription.SubscriptionCode
}

// UnknownEvent is any event type without a handler.
type UnknownEvent struct {
	Type string
}

func (e UnknownEvent) Name() string     { return e.Type }
func (e UnknownEvent) DedupKey() string { return "" }

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode parses a raw delivery into its Event variant. Known events with a
// payload missing their identifying field are rejected as validation errors.
func Decode(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	name := strings.TrimSpace(env.Event)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event type missing")
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook data missing")
	}

	switch name {
	case EventChargeSuccess:
		txn, err := paystack.DecodeTransaction(env.Data)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed charge payload")
		}
		if strings.TrimSpace(txn.Reference) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference missing")
		}
		if txn.Status == "" {
			txn.Status = paystack.TransactionStatusSuccess
		}
		return ChargeSuccessEvent{Transaction: txn}, nil
	case EventSubscriptionCreate, EventSubscriptionDisable, EventSubscriptionNotRenewal:
		sub, err := paystack.DecodeSubscription(env.Data)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed subscription payload")
		}
		if strings.TrimSpace(sub.SubscriptionCode) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription code missing")
		}
		switch name {
		case EventSubscriptionCreate:
			return SubscriptionCreatedEvent{Subscription: sub}, nil
		case EventSubscriptionDisable:
			return SubscriptionDisabledEvent{Subscription: sub}, nil
		default:
			return SubscriptionNotRenewingEvent{Subscription: sub}, nil
		}
	default:
		return UnknownEvent{Type: name}, nil
	}
}

package enums

import "slices"

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionTypeRegistration TransactionType = "registration"
	TransactionTypeSubscription TransactionType = "subscription"
	TransactionTypeRefund       TransactionType = "refund"
)

var transactionTypes = []TransactionType{
	TransactionTypeRegistration,
	TransactionTypeSubscription,
	TransactionTypeRefund,
}

func (t TransactionType) String() string { return string(t) }

func (t TransactionType) IsValid() bool { return slices.Contains(transactionTypes, t) }

func ParseTransactionType(value string) (TransactionType, error) {
	return parse("transaction type", value, transactionTypes)
}

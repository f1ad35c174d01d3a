package enums

import "slices"

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusSuccess  TransactionStatus = "success"
	TransactionStatusFailed   TransactionStatus = "failed"
	TransactionStatusRefunded TransactionStatus = "refunded"
)

var transactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusSuccess,
	TransactionStatusFailed,
	TransactionStatusRefunded,
}

func (t TransactionStatus) String() string { return string(t) }

func (t TransactionStatus) IsValid() bool { return slices.Contains(transactionStatuses, t) }

// Settled reports whether money moved for this entry, even if it was later
// refunded. A settled reference is never charged again.
func (t TransactionStatus) Settled() bool {
	return t == TransactionStatusSuccess || t == TransactionStatusRefunded
}

func ParseTransactionStatus(value string) (TransactionStatus, error) {
	return parse("transaction status", value, transactionStatuses)
}

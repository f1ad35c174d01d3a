package enums

import "slices"

// AccountStatus tracks whether an account may sign in.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusInactive  AccountStatus = "inactive"
	AccountStatusSuspended AccountStatus = "suspended"
)

var accountStatuses = []AccountStatus{AccountStatusActive, AccountStatusInactive, AccountStatusSuspended}

func (s AccountStatus) String() string { return string(s) }

func (s AccountStatus) IsValid() bool { return slices.Contains(accountStatuses, s) }

func ParseAccountStatus(value string) (AccountStatus, error) {
	return parse("account status", value, accountStatuses)
}

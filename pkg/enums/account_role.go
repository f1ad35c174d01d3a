package enums

import "slices"

// AccountRole is the platform-wide permission level of an account.
type AccountRole string

const (
	AccountRoleMember     AccountRole = "member"
	AccountRoleAdmin      AccountRole = "admin"
	AccountRoleSuperAdmin AccountRole = "superadmin"
)

var accountRoles = []AccountRole{AccountRoleMember, AccountRoleAdmin, AccountRoleSuperAdmin}

func (r AccountRole) String() string { return string(r) }

func (r AccountRole) IsValid() bool { return slices.Contains(accountRoles, r) }

func ParseAccountRole(value string) (AccountRole, error) {
	return parse("account role", value, accountRoles)
}

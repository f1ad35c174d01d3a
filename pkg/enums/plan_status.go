package enums

import "slices"

// PlanStatus says whether a plan is still offered. Deleting a plan only
// flips it to inactive because subscriptions keep referencing it.
type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusInactive PlanStatus = "inactive"
)

var planStatuses = []PlanStatus{PlanStatusActive, PlanStatusInactive}

func (p PlanStatus) String() string { return string(p) }

func (p PlanStatus) IsValid() bool { return slices.Contains(planStatuses, p) }

func ParsePlanStatus(value string) (PlanStatus, error) {
	return parse("plan status", value, planStatuses)
}

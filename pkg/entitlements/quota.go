package entitlements

// TotalUnitLimit is the plan's base quota plus purchased extra capacity.
// Negative extra capacity is treated as zero.
func TotalUnitLimit(plan Plan, extraCapacity int) int {
	if extraCapacity < 0 {
		extraCapacity = 0
	}
	return plan.MaxUnits() + extraCapacity
}

// Quota is the unit allowance of one admin at a point in time.
type Quota struct {
	TotalAllowed  int  `json:"total_allowed"`
	SlotsUsed     int  `json:"slots_used"`
	Remaining     int  `json:"remaining"`
	CanCreateMore bool `json:"can_create_more"`
}

func ComputeQuota(plan Plan, extraCapacity, ownedCount int) Quota {
	total := TotalUnitLimit(plan, extraCapacity)
	if ownedCount < 0 {
		ownedCount = 0
	}
	remaining := total - ownedCount
	if remaining < 0 {
		remaining = 0
	}
	return Quota{
		TotalAllowed:  total,
		SlotsUsed:     ownedCount,
		Remaining:     remaining,
		CanCreateMore: ownedCount < total,
	}
}

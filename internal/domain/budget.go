package domain

// PointsBudget is the running estimate of points left to earn for one
// account. It is owned by a single pipeline invocation.
type PointsBudget struct {
	value int
	set   bool
}

func (b *PointsBudget) SetFromDesktop(earnable int) {
	b.value = earnable
	b.set = true
}

// ApplyMobile subtracts what is still earnable after the mobile phase.
// A zero total leaves the budget untouched.
func (b *PointsBudget) ApplyMobile(earnable int) {
	if earnable == 0 {
		return
	}

	b.value -= earnable
}

func (b PointsBudget) Value() (int, error) {
	if !b.set {
		return 0, ErrBudgetUnset
	}

	return b.value, nil
}

// IsZero is false until the desktop phase has set the budget.
func (b PointsBudget) IsZero() bool {
	return b.set && b.value == 0
}

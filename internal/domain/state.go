package domain

type AccountState string

const (
	StatePending        AccountState = "pending"
	StateDesktopRunning AccountState = "desktop_running"
	StateEarlyStop      AccountState = "early_stop"
	StateMobileRunning  AccountState = "mobile_running"
	StateMobileRetry    AccountState = "mobile_retry"
	StateDone           AccountState = "done"
	StateFailed         AccountState = "failed"
)

// Terminal reports whether the pipeline has finished with the account.
func (s AccountState) Terminal() bool {
	switch s {
	case StateEarlyStop, StateDone, StateFailed:
		return true
	default:
		return false
	}
}

type ActivityKind string

const (
	ActivityDailySet       ActivityKind = "daily_set"
	ActivityMorePromotions ActivityKind = "more_promotions"
	ActivityPunchCards     ActivityKind = "punch_cards"
	ActivitySearch         ActivityKind = "search"
	ActivityDailyCheckIn   ActivityKind = "daily_check_in"
	ActivityReadToEarn     ActivityKind = "read_to_earn"
)

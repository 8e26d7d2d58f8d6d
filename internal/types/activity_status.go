package types

// ActivityStatus defines the possible statuses of an activity record.
type ActivityStatus string

const (
	// ActivityPending indicates the action has been dispatched but not completed yet.
	ActivityPending ActivityStatus = "pending"
	// ActivitySuccess indicates the action completed and a transaction was confirmed.
	ActivitySuccess ActivityStatus = "success"
	// ActivityFailed indicates the action failed after all retry attempts.
	ActivityFailed ActivityStatus = "failed"
)

package models

// DenyKind identifies which window's limit a denied request exceeded.
type DenyKind string

const (
	DenyMinute DenyKind = "MINUTE"
	DenyDay    DenyKind = "DAY"
)

// Limits is the quota pair enforced for one partition key. It is supplied by
// the plan layer; the limiter never looks limits up itself.
type Limits struct {
	RequestsPerMinute uint
	RequestsPerDay    uint
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed bool
	// Kind is set only when Allowed is false.
	Kind DenyKind
	// FailedOpen marks results that were allowed because the counter store
	// was unreachable, not because the counters were under the limits.
	FailedOpen bool
	// MinuteCount and DayCount are the post-increment counter values. Zero
	// when FailedOpen is set.
	MinuteCount int64
	DayCount    int64
	// RetryAfter is the suggested client wait in seconds for denied results.
	RetryAfter int
}

// Usage is a best-effort snapshot of the current window counters.
type Usage struct {
	MinuteCount int64
	DayCount    int64
}

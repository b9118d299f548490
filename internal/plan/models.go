package plan

import (
	"time"
)

// Tier identifies a subscription plan in the static plan catalog.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// QuotaPolicy is the limit pair attached to a plan tier. It is owned by the
// plan catalog and subscription records; this package only reads and caches
// it. Consumers may observe values up to CacheTTL old.
type QuotaPolicy struct {
	RequestsPerMinute uint `json:"requestsPerMinute"`
	RequestsPerDay    uint `json:"requestsPerDay"`
}

// Subscription links a user to a plan tier.
type Subscription struct {
	UserID    string
	Tier      Tier
	UpdatedAt time.Time
}

// CacheTTL is the bounded staleness window for resolved policies. It is the
// only intentional staleness in the enforcement pipeline.
const CacheTTL = 60 * time.Second

// catalog is the static tier→policy mapping consumed from the plan catalog.
var catalog = map[Tier]QuotaPolicy{
	TierFree:       {RequestsPerMinute: 10, RequestsPerDay: 1_000},
	TierPro:        {RequestsPerMinute: 120, RequestsPerDay: 50_000},
	TierEnterprise: {RequestsPerMinute: 1_000, RequestsPerDay: 1_000_000},
}

// PolicyFor returns the catalog policy for a tier. Unknown tiers map to the
// lowest tier so a corrupted subscription record can only tighten limits.
func PolicyFor(tier Tier) QuotaPolicy {
	if policy, ok := catalog[tier]; ok {
		return policy
	}
	return catalog[TierFree]
}

// DefaultPolicy is the hard default applied when a user has no subscription
// record: the lowest tier.
func DefaultPolicy() QuotaPolicy {
	return catalog[TierFree]
}

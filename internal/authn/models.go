package authn

// Identity is the resolved caller of a request. ClientID is set only when
// authentication resolved through an API key; a user may own several clients,
// each throttled independently.
type Identity struct {
	UserID   string
	ClientID string
}

// PartitionKey returns the string rate-limit counters are tracked under:
// the client when one is present, the user otherwise.
func (id Identity) PartitionKey() string {
	if id.ClientID != "" {
		return id.ClientID
	}
	return id.UserID
}

package realtime

// Named realtime streams used across the platform.
const (
	// StreamNotifications carries per-user inbox events.
	StreamNotifications = "notifications"
	// StreamModeration carries admin-facing hints such as the pending-report
	// count. Consumers must treat those as eventually consistent; the
	// authoritative numbers always come from the store.
	StreamModeration = "moderation"
)

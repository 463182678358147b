package shared

// SyncStatus tracks a record's relationship to the external board.
type SyncStatus string

const (
	// SyncStatusSynced means the record matches its board item.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusPending means the record has unpushed local changes.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusError means the last push attempt failed.
	SyncStatusError SyncStatus = "error"
)

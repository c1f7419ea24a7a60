package model

import "time"

// HashIndexState is the lifecycle state of the email hash index
type HashIndexState string

const (
	HashIndexEmpty      HashIndexState = "empty"
	HashIndexPopulating HashIndexState = "populating"
	HashIndexReady      HashIndexState = "ready"
)

// HashIndexMetadata tracks the health of the email hash index
type HashIndexMetadata struct {
	State              HashIndexState
	LastRefreshSuccess time.Time // Last completed scan
	LastRefreshAttempt time.Time // Last scan start (success or failure)
	EntryCount         int       // Entries in the index after the last completed scan
	ScannedUsers       int       // Users returned by the last completed scan
}

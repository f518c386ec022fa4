package models

import "time"

// History action constants represent terminal events worth recording.
const (
	HistoryActionGenerate = "GENERATE"
	HistoryActionRepair   = "REPAIR"
	HistoryActionScenario = "SCENARIO"
	HistoryActionEdit     = "EDIT"
	HistoryActionExport   = "EXPORT"
	HistoryActionAdd      = "ADD"
	HistoryActionUpdate   = "UPDATE"
	HistoryActionDelete   = "DELETE"
	HistoryActionClear    = "CLEAR"
)

// HistoryEntry is one activity log record.
type HistoryEntry struct {
	ID        string    `db:"id" json:"id"`
	Action    string    `db:"action" json:"action"`
	Target    string    `db:"target" json:"target"`
	Summary   string    `db:"summary" json:"summary"`
	Details   string    `db:"details" json:"details,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HistoryFilter limits history listings.
type HistoryFilter struct {
	Action   string
	Page     int
	PageSize int
}

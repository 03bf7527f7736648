// Package domain holds the lead pipeline vocabulary shared by the
// repository, lifecycle, and transport layers.
package domain

import "time"

// Status is a lead's position in the sales pipeline.
type Status string

const (
	StatusNew          Status = "new"
	StatusContacted    Status = "contacted"
	StatusNegotiation  Status = "negotiation"
	StatusProposalSent Status = "proposal_sent"
	StatusWon          Status = "won"
	StatusLost         Status = "lost"
	StatusPaused       Status = "paused"
)

var knownStatuses = map[Status]struct{}{
	StatusNew:          {},
	StatusContacted:    {},
	StatusNegotiation:  {},
	StatusProposalSent: {},
	StatusWon:          {},
	StatusLost:         {},
	StatusPaused:       {},
}

// IsKnownStatus reports whether status belongs to the fixed pipeline set.
// Transitions are deliberately permissive: any known status may follow any
// other, including reopening won/lost leads.
func IsKnownStatus(status Status) bool {
	_, ok := knownStatuses[status]
	return ok
}

// ValidStatuses returns the pipeline statuses in funnel order, for error
// details and enum documentation.
func ValidStatuses() []string {
	return []string{
		string(StatusNew),
		string(StatusContacted),
		string(StatusNegotiation),
		string(StatusProposalSent),
		string(StatusWon),
		string(StatusLost),
		string(StatusPaused),
	}
}

// EventStatusChange is the event kind recorded in history entries.
const EventStatusChange = "status_change"

// HistoryEntry is one append-only audit record of a status change.
// The JSON shape is stored verbatim in the leads table and must stay stable.
type HistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Event          string    `json:"event"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	Note           *string   `json:"note,omitempty"`
}

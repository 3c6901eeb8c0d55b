package models

import "github.com/google/uuid"

// VerdictStatus represents the judgment for one requirement
type VerdictStatus string

const (
	StatusSatisfied VerdictStatus = "satisfied"
	StatusPartial   VerdictStatus = "partial"
	StatusMissing   VerdictStatus = "missing"
)

// Rank orders statuses, Satisfied > Partial > Missing
func (s VerdictStatus) Rank() int {
	switch s {
	case StatusSatisfied:
		return 2
	case StatusPartial:
		return 1
	default:
		return 0
	}
}

// ParseVerdictStatus parses a status case-insensitively
func ParseVerdictStatus(s string) (VerdictStatus, bool) {
	switch VerdictStatus(normalizeWord(s)) {
	case StatusSatisfied, "compliant", "met":
		return StatusSatisfied, true
	case StatusPartial, "partially_satisfied", "partially_compliant":
		return StatusPartial, true
	case StatusMissing, "not_satisfied", "non_compliant", "unmet":
		return StatusMissing, true
	}
	return StatusMissing, false
}

// ComplianceVerdict represents the judgment for one (regulation, requirement) pair.
// A nil ClauseID means no clause addresses the requirement's categories.
type ComplianceVerdict struct {
	RequirementID string        `json:"requirement_id"`
	ClauseID      *uuid.UUID    `json:"clause_id"`
	Status        VerdictStatus `json:"status"`
	Rationale     string        `json:"rationale"`
	Degraded      bool          `json:"degraded,omitempty"`
}

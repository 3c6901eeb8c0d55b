package models

import "strings"

// RegulationCode identifies a regulatory framework
type RegulationCode string

const (
	RegulationGDPR   RegulationCode = "GDPR"
	RegulationHIPAA  RegulationCode = "HIPAA"
	RegulationCCPA   RegulationCode = "CCPA"
	RegulationSOX    RegulationCode = "SOX"
	RegulationPCIDSS RegulationCode = "PCI_DSS"
	RegulationFERPA  RegulationCode = "FERPA"
)

// RegulationCodes lists every supported regulation in canonical order
var RegulationCodes = []RegulationCode{
	RegulationGDPR,
	RegulationHIPAA,
	RegulationCCPA,
	RegulationSOX,
	RegulationPCIDSS,
	RegulationFERPA,
}

// ParseRegulationCode parses a regulation code case-insensitively
func ParseRegulationCode(s string) (RegulationCode, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if key == "PCIDSS" || key == "PCI" {
		key = string(RegulationPCIDSS)
	}
	for _, code := range RegulationCodes {
		if string(code) == key {
			return code, true
		}
	}
	return "", false
}

// Severity represents how serious an unmet requirement is
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities, higher is more severe. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Title returns the display form of the severity
func (s Severity) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Requirement represents one checkable obligation defined by a regulation
type Requirement struct {
	ID                   string           `json:"id" yaml:"id"`
	RegulationCode       RegulationCode   `json:"regulation_code" yaml:"-"`
	Description          string           `json:"description" yaml:"description"`
	ApplicableCategories []ClauseCategory `json:"applicable_categories" yaml:"applicable_categories"`
	Severity             Severity         `json:"severity" yaml:"severity"`
}

// AppliesTo reports whether a clause of the given category can address the requirement
func (r Requirement) AppliesTo(category ClauseCategory) bool {
	for _, c := range r.ApplicableCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Regulation represents a regulatory framework and its ordered requirement checklist
type Regulation struct {
	Code         RegulationCode `json:"code" yaml:"code"`
	Name         string         `json:"name" yaml:"name"`
	Requirements []Requirement  `json:"requirements" yaml:"requirements"`
}

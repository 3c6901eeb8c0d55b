package models

import (
	"strings"

	"github.com/google/uuid"
)

// ClauseCategory represents one entry of the fixed clause taxonomy
type ClauseCategory string

const (
	CategoryDataPrivacy       ClauseCategory = "data_privacy"
	CategorySecurity          ClauseCategory = "security"
	CategoryLiability         ClauseCategory = "liability"
	CategoryTermination       ClauseCategory = "termination"
	CategoryPayment           ClauseCategory = "payment"
	CategoryConfidentiality   ClauseCategory = "confidentiality"
	CategoryIPRights          ClauseCategory = "intellectual_property"
	CategoryCompliance        ClauseCategory = "compliance"
	CategoryForceMajeure      ClauseCategory = "force_majeure"
	CategoryDisputeResolution ClauseCategory = "dispute_resolution"
	CategoryUnclassified      ClauseCategory = "unclassified"
)

// Taxonomy is the ordered set of categories a clause can be classified into.
// Unclassified is deliberately not part of it.
var Taxonomy = []ClauseCategory{
	CategoryDataPrivacy,
	CategorySecurity,
	CategoryLiability,
	CategoryTermination,
	CategoryPayment,
	CategoryConfidentiality,
	CategoryIPRights,
	CategoryCompliance,
	CategoryForceMajeure,
	CategoryDisputeResolution,
}

var categoryAliases = map[string]ClauseCategory{
	"privacy":                      CategoryDataPrivacy,
	"data_protection":              CategoryDataPrivacy,
	"information_security":         CategorySecurity,
	"data_security":                CategorySecurity,
	"indemnification":              CategoryLiability,
	"indemnity":                    CategoryLiability,
	"ip":                           CategoryIPRights,
	"ip_rights":                    CategoryIPRights,
	"intellectual_property_rights": CategoryIPRights,
	"regulatory_compliance":        CategoryCompliance,
	"dispute":                      CategoryDisputeResolution,
	"governing_law":                CategoryDisputeResolution,
	"arbitration":                  CategoryDisputeResolution,
	"payment_terms":                CategoryPayment,
	"fees":                         CategoryPayment,
}

// ParseCategory maps free-form category text onto the taxonomy.
// The second return value is false when the text names no taxonomy entry.
func ParseCategory(s string) (ClauseCategory, bool) {
	key := categoryKey(s)
	for _, c := range Taxonomy {
		if string(c) == key {
			return c, true
		}
	}
	if c, ok := categoryAliases[key]; ok {
		return c, true
	}
	return CategoryUnclassified, false
}

// DeclinesCategory reports whether s is an explicit answer that no category applies
func DeclinesCategory(s string) bool {
	return declinedCategories[categoryKey(s)]
}

var declinedCategories = map[string]bool{
	"unclassified":   true,
	"other":          true,
	"none":           true,
	"unknown":        true,
	"n_a":            true,
	"not_applicable": true,
}

func categoryKey(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(key)
}

// Valid reports whether the category is part of the taxonomy or Unclassified
func (c ClauseCategory) Valid() bool {
	if c == CategoryUnclassified {
		return true
	}
	for _, t := range Taxonomy {
		if t == c {
			return true
		}
	}
	return false
}

// Clause represents a contiguous excerpt of contract text, the unit of analysis
type Clause struct {
	ID                       uuid.UUID      `json:"id"`
	DocumentID               uuid.UUID      `json:"document_id"`
	SequenceIndex            int            `json:"sequence_index"`
	Text                     string         `json:"text"`
	Category                 ClauseCategory `json:"category"`
	ClassificationConfidence float64        `json:"classification_confidence"`
}

// ClauseID derives a stable clause identifier from its document and position
func ClauseID(documentID uuid.UUID, sequenceIndex int) uuid.UUID {
	return uuid.NewSHA1(documentID, []byte{
		byte(sequenceIndex >> 24), byte(sequenceIndex >> 16), byte(sequenceIndex >> 8), byte(sequenceIndex),
	})
}

package analysis

import (
	"errors"
	"strings"
	"testing"

	"clausecheck-backend/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "line endings and spacing",
			raw:  "1.  Services\r\nThe   supplier\tshall   deliver the services.\r\n\r\n\r\n2. Fees\rThe customer pays monthly fees.",
			want: "1. Services\nThe supplier shall deliver the services.\n\n2. Fees\nThe customer pays monthly fees.",
		},
		{
			name: "page artifacts",
			raw:  "The supplier shall keep records.\n\nPage 3 of 10\n\fThe customer may audit the records.\n- 4 -\n",
			want: "The supplier shall keep records.\n\nThe customer may audit the records.",
		},
		{
			name: "typographic characters",
			raw:  "\ufeff\u201cConfidential\u201d information\u00a0shall not be disclosed \u2013 see the de\u00adfinitions and the o\ufb03ce policy.",
			want: "\"Confidential\" information shall not be disclosed - see the definitions and the office policy.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, 10)
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		threeClauseContract,
		"  Section 1\r\n\r\n\r\n  The parties agree\u00a0to the terms.\f\fPage 2\n\n\n(a) First item of the list.\n\t(b) Second item.\x00\n",
		"\u201cSmart\u201d \u2018quotes\u2019 and \ufb01nal \u2014 dashes \u200b in a sentence long enough to analyze.",
	}

	for _, in := range inputs {
		once, err := Normalize(in, 10)
		if err != nil {
			t.Fatalf("Normalize() error: %v", err)
		}
		twice, err := Normalize(once, 10)
		if err != nil {
			t.Fatalf("second Normalize() error: %v", err)
		}
		if once != twice {
			t.Errorf("Normalize is not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
		if strings.Contains(once, "\n\n\n") {
			t.Errorf("Normalize() left more than one blank line: %q", once)
		}
	}
}

func TestNormalize_RejectsEmptyAndShortText(t *testing.T) {
	for _, raw := range []string{"", "   \n\t\r\n", "Page 1 of 2\n\nToo short."} {
		_, err := Normalize(raw, DefaultMinDocumentLength)
		if !errors.Is(err, models.ErrInvalidDocument) {
			t.Errorf("Normalize(%q) error = %v, want InvalidDocumentError", raw, err)
		}
	}
}

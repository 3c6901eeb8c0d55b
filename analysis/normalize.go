package analysis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"clausecheck-backend/models"
)

// DefaultMinDocumentLength is the shortest normalized text worth analyzing
const DefaultMinDocumentLength = 50

var (
	artifactReplacer = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\f", "\n\n",
		"\u00a0", " ",
		"\u2007", " ",
		"\u202f", " ",
		"\ufeff", "",
		"\u00ad", "",
		"\u200b", "",
		"\u2018", "'",
		"\u2019", "'",
		"\u201c", `"`,
		"\u201d", `"`,
		"\u2013", "-",
		"\u2014", "-",
		"\ufb00", "ff",
		"\ufb01", "fi",
		"\ufb02", "fl",
		"\ufb03", "ffi",
		"\ufb04", "ffl",
	)

	pageMarkerPattern = regexp.MustCompile(`(?i)^(?:page\s+\d+(?:\s+of\s+\d+)?|-\s*\d+\s*-|\[\s*page\s*break\s*\])$`)
)

// Normalize turns raw extracted text into canonical text.
// It is idempotent: Normalize(Normalize(x)) == Normalize(x). Paragraphs stay
// separated by exactly one blank line.
func Normalize(raw string, minLength int) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", models.NewError(models.KindInvalidDocument, "document contains no text")
	}

	text := artifactReplacer.Replace(raw)
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t' || r == '\v':
			return ' '
		case r == utf8.RuneError:
			return -1
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		case unicode.IsSpace(r):
			return ' '
		}
		return r
	}, text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if pageMarkerPattern.MatchString(line) {
			continue
		}
		if line == "" {
			if !blank {
				out = append(out, "")
				blank = true
			}
			continue
		}
		out = append(out, line)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	text = strings.Join(out, "\n")
	if n := utf8.RuneCountInString(text); n < minLength {
		return "", models.NewError(models.KindInvalidDocument, "document has %d characters of analyzable text, need at least %d", n, minLength)
	}
	return text, nil
}

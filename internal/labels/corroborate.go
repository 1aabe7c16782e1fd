package labels

import (
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

const (
	// minNameSimilarity is the best-window similarity at which label text is
	// considered to name the product.
	minNameSimilarity = 0.75
	maxEvidenceText   = 500
)

// Evidence is attached to the analysis response as "labelEvidence".
type Evidence struct {
	Text           string  `json:"text"`
	NameSimilarity float64 `json:"nameSimilarity"`
	WordErrorRate  float64 `json:"wordErrorRate"`
	Corroborated   bool    `json:"corroborated"`
}

// Corroborate compares the identified product name against OCR text. The name
// is slid across the label tokens and the closest window wins, so a brand name
// buried in a paragraph of ingredients still matches.
func Corroborate(productName, labelText string) Evidence {
	ev := Evidence{Text: truncate(strings.TrimSpace(labelText), maxEvidenceText), WordErrorRate: 1}

	name := tokenize(productName)
	label := tokenize(labelText)
	if len(name) == 0 || len(label) == 0 {
		return ev
	}

	window := min(len(name), len(label))
	for start := 0; start+window <= len(label); start++ {
		candidate := label[start : start+window]

		sim := similarity(strings.Join(name, " "), strings.Join(candidate, " "))
		if sim > ev.NameSimilarity {
			ev.NameSimilarity = sim
		}
		rate, _ := wer.WER(name, candidate)
		if rate < ev.WordErrorRate {
			ev.WordErrorRate = rate
		}
	}

	ev.Corroborated = ev.NameSimilarity >= minNameSimilarity || ev.WordErrorRate <= 0.5
	return ev
}

func similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.Distance(a, b))/float64(longest)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Package matcher ranks tariff reference entries against a product title and
// description.
package matcher

import (
	"fmt"
	"strings"

	"github.com/sells-group/hts-classify/internal/model"
)

const (
	// MaxCandidates is the most candidates a match returns.
	MaxCandidates = 3

	topConfidence  = 95
	confidenceStep = 10
)

// Matcher returns up to MaxCandidates ranked candidates for a product.
type Matcher interface {
	Match(title, description string) []model.Candidate
}

// Containment is the substring heuristic over a reference table. A row
// matches when the query contains its description, or when its description
// or category contains the query's first token. Rows keep table order.
type Containment struct {
	table *model.Table
}

// NewContainment returns a Containment matcher over t. A nil or empty table
// never matches.
func NewContainment(t *model.Table) *Containment {
	return &Containment{table: t}
}

var _ Matcher = (*Containment)(nil)

// Match implements Matcher.
func (m *Containment) Match(title, description string) []model.Candidate {
	query := strings.ToLower(title + " " + description)
	first := firstToken(query)

	var out []model.Candidate
	for _, e := range m.table.Entries() {
		if len(out) == MaxCandidates {
			break
		}
		if !matches(query, first, e) {
			continue
		}
		out = append(out, model.CandidateFromEntry(e, reasoning(e), Confidence(len(out))))
	}
	return out
}

// firstToken returns the text before the first space. A title starting with a
// space yields the empty token, which every row contains.
func firstToken(query string) string {
	tok, _, _ := strings.Cut(query, " ")
	return tok
}

func matches(query, first string, e model.Entry) bool {
	desc := strings.ToLower(e.Description)
	category := strings.ToLower(e.Category)
	return strings.Contains(query, desc) ||
		strings.Contains(desc, first) ||
		strings.Contains(category, first)
}

func reasoning(e model.Entry) string {
	return fmt.Sprintf(`Based on product description matching "%s" category`, e.Category)
}

// Confidence returns the score for a zero-based rank: 95, 85, 75, ... floored at 0.
func Confidence(rank int) int {
	c := topConfidence - confidenceStep*rank
	if c < 0 {
		return 0
	}
	return c
}

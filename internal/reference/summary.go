package reference

import (
	"slices"
	"time"

	"github.com/sells-group/hts-classify/internal/model"
)

// Summary describes the shape of a loaded reference table.
type Summary struct {
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Chapters int       `json:"chapters"`
	Headings int       `json:"headings"`
	Nested   int       `json:"nested"`
	WithFTA  int       `json:"with_fta"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
}

// Summarize counts rows, distinct chapters and headings, rows nested under
// another row's code, and rows with FTA countries. A nil table summarizes to zero.
func Summarize(t *model.Table) Summary {
	s := Summary{
		Source:   t.Source(),
		Rows:     t.Len(),
		LoadedAt: t.LoadedAt(),
	}

	chapters := make(map[string]struct{})
	headings := make(map[string]struct{})
	codes := make([]model.HTSCode, 0, t.Len())
	for _, e := range t.Entries() {
		code := model.HTSCode(e.HTSNumber)
		if ch := code.Chapter(); ch != "" {
			chapters[ch] = struct{}{}
		}
		if h := code.Heading(); h != "" {
			headings[h] = struct{}{}
		}
		if e.FTACountries != "" {
			s.WithFTA++
		}
		codes = append(codes, code)
	}
	s.Chapters = len(chapters)
	s.Headings = len(headings)
	s.Nested = countNested(codes)
	return s
}

// countNested counts codes that have an ancestor elsewhere in codes. Sorting
// places every code directly before its dotted descendants, so a stack of open
// ancestors is enough.
func countNested(codes []model.HTSCode) int {
	slices.Sort(codes)

	var n int
	var stack []model.HTSCode
	for _, c := range codes {
		for len(stack) > 0 && !stack[len(stack)-1].IsParentOf(c) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			n++
		}
		stack = append(stack, c)
	}
	return n
}

package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hts-classify/internal/model"
)

func table(entries ...model.Entry) *model.Table {
	return model.NewTable("test", time.Now(), entries)
}

var (
	cottonShirts = model.Entry{
		Category:     "Apparel → Shirts",
		HTSNumber:    "6104.32",
		Description:  "Shirts and shirt-blouses of cotton",
		GeneralRate:  "16.5%",
		SpecialRate:  "Free (AU,BH)",
		Column2Rate:  "90%",
		FTACountries: "AU,BH",
		FTARules:     "US-Australia FTA; US-Bahrain FTA",
	}
	paperYarn = model.Entry{
		Category:    "Category → Of paper yarn",
		HTSNumber:   "5311.00.60.00",
		Description: "Of paper yarn",
		GeneralRate: "2.7%",
	}
	mensCoats = model.Entry{
		Category:    "Men's outerwear",
		HTSNumber:   "6201.30",
		Description: "Men's overcoats of cotton",
		GeneralRate: "4.4%",
	}
)

func TestMatch_EmptyTable(t *testing.T) {
	assert.Empty(t, NewContainment(nil).Match("Men's Cotton T-Shirt", "100% cotton"))
	assert.Empty(t, NewContainment(table()).Match("Men's Cotton T-Shirt", "100% cotton"))
}

func TestMatch_QueryContainsDescription(t *testing.T) {
	m := NewContainment(table(paperYarn, cottonShirts))

	got := m.Match("Premium", "Shirts and Shirt-Blouses of Cotton, short sleeve")
	require.Len(t, got, 1)
	assert.Equal(t, "6104.32", got[0].Code)
	assert.Equal(t, 95, got[0].Confidence)
}

func TestMatch_DescriptionContainsFirstToken(t *testing.T) {
	m := NewContainment(table(paperYarn, cottonShirts))

	got := m.Match("Shirts", "for summer")
	require.Len(t, got, 1)
	assert.Equal(t, "6104.32", got[0].Code)
}

func TestMatch_CategoryContainsFirstToken(t *testing.T) {
	m := NewContainment(table(cottonShirts, paperYarn))

	got := m.Match("Apparel", "for summer")
	require.Len(t, got, 1)
	assert.Equal(t, "6104.32", got[0].Code)
	assert.Equal(t, `Based on product description matching "Apparel → Shirts" category`, got[0].Reasoning)
}

func TestMatch_CaseInsensitive(t *testing.T) {
	m := NewContainment(table(paperYarn))

	got := m.Match("PAPER", "YARN")
	require.Len(t, got, 1)
	assert.Equal(t, "5311.00.60.00", got[0].Code)
}

func TestMatch_NoMatch(t *testing.T) {
	m := NewContainment(table(cottonShirts, paperYarn))
	assert.Empty(t, m.Match("Lithium", "battery pack"))
}

func TestMatch_SpecExampleShirt(t *testing.T) {
	m := NewContainment(table(paperYarn, mensCoats, cottonShirts))

	// First token "men's" hits the coat description and category first.
	got := m.Match("Men's Cotton T-Shirt", "100% cotton, short sleeve")
	require.Len(t, got, 1)
	assert.Equal(t, "6201.30", got[0].Code)

	m = NewContainment(table(paperYarn, cottonShirts))
	got = m.Match("Shirts", "Men's Cotton T-Shirt, 100% cotton, short sleeve")
	require.Len(t, got, 1)
	assert.Equal(t, "6104.32", got[0].Code)
	assert.Equal(t, 95, got[0].Confidence)
	assert.Equal(t, "16.5%", got[0].GeneralDutyRate)
	assert.Equal(t, "Free (AU,BH)", got[0].SpecialDutyRate)
	assert.Equal(t, "90%", got[0].Column2DutyRate)
	assert.Equal(t, "AU,BH", got[0].ApplicableFTACountries)
	assert.Equal(t, "US-Australia FTA; US-Bahrain FTA", got[0].ApplicableFTARules)
}

func TestMatch_TruncatesToThreeInTableOrder(t *testing.T) {
	var entries []model.Entry
	for _, code := range []string{"6101", "6102", "6103", "6104", "6105"} {
		entries = append(entries, model.Entry{
			Category:    "Apparel",
			HTSNumber:   code,
			Description: "Garment " + code,
		})
	}
	m := NewContainment(table(entries...))

	got := m.Match("apparel", "anything")
	require.Len(t, got, MaxCandidates)
	assert.Equal(t, "6101", got[0].Code)
	assert.Equal(t, "6102", got[1].Code)
	assert.Equal(t, "6103", got[2].Code)
}

func TestMatch_ConfidenceSchedule(t *testing.T) {
	m := NewContainment(table(
		model.Entry{Category: "Textiles", HTSNumber: "5208", Description: "Woven cotton"},
		model.Entry{Category: "Textiles", HTSNumber: "5209", Description: "Woven cotton heavy"},
		model.Entry{Category: "Textiles", HTSNumber: "5210", Description: "Woven cotton mixed"},
	))

	got := m.Match("textiles", "")
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, 95-10*i, c.Confidence)
		if i > 0 {
			assert.Equal(t, got[i-1].Confidence-10, c.Confidence)
		}
	}
}

func TestMatch_CandidatesComeFromTable(t *testing.T) {
	tbl := table(cottonShirts, paperYarn, mensCoats)
	codes := map[string]bool{}
	for _, e := range tbl.Entries() {
		codes[e.HTSNumber] = true
	}

	m := NewContainment(tbl)
	for _, q := range [][2]string{
		{"of", "anything"},
		{"men's", "coat"},
		{"shirts", ""},
		{"nothing", "here"},
		{"", ""},
	} {
		for _, c := range m.Match(q[0], q[1]) {
			assert.NotEmpty(t, c.Code)
			assert.True(t, codes[c.Code], c.Code)
			assert.GreaterOrEqual(t, c.Confidence, 0)
		}
	}
}

func TestMatch_ShortFirstTokenOverMatches(t *testing.T) {
	m := NewContainment(table(cottonShirts, paperYarn, mensCoats))

	// "of" appears in every description: the accepted precision trade-off.
	got := m.Match("of", "something unrelated")
	assert.Len(t, got, 3)
}

func TestMatch_LeadingSpaceMatchesEverything(t *testing.T) {
	m := NewContainment(table(cottonShirts, paperYarn))
	assert.Len(t, m.Match(" lithium", "battery"), 2)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 95, Confidence(0))
	assert.Equal(t, 85, Confidence(1))
	assert.Equal(t, 75, Confidence(2))
	assert.Equal(t, 5, Confidence(9))
	assert.Equal(t, 0, Confidence(10))
	assert.Equal(t, 0, Confidence(50))
}

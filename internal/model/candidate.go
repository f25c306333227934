package model

// Candidate is a ranked classification for a single request. It is never persisted.
type Candidate struct {
	Code                   string `json:"code"`
	Description            string `json:"description"`
	Reasoning              string `json:"reasoning"`
	Confidence             int    `json:"confidence"`
	GeneralDutyRate        string `json:"generalDutyRate"`
	SpecialDutyRate        string `json:"specialDutyRate"`
	Column2DutyRate        string `json:"column2DutyRate"`
	ApplicableFTACountries string `json:"applicableFtaCountries"`
	ApplicableFTARules     string `json:"applicableFtaRules"`
}

// CandidateFromEntry copies the tariff and FTA fields of e into a Candidate.
func CandidateFromEntry(e Entry, reasoning string, confidence int) Candidate {
	return Candidate{
		Code:                   e.HTSNumber,
		Description:            e.Description,
		Reasoning:              reasoning,
		Confidence:             confidence,
		GeneralDutyRate:        e.GeneralRate,
		SpecialDutyRate:        e.SpecialRate,
		Column2DutyRate:        e.Column2Rate,
		ApplicableFTACountries: e.FTACountries,
		ApplicableFTARules:     e.FTARules,
	}
}

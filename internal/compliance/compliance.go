// Package compliance derives FTA eligibility, MPF exemption and a duty
// estimate from the top classification candidate and the origin country.
package compliance

import (
	"fmt"
	"strings"

	"github.com/sells-group/hts-classify/internal/model"
)

const (
	// ProgramNone is the program reported when the origin is not eligible.
	ProgramNone = "None"
	// ProgramGeneric is used when an eligible entry names no FTA rule.
	ProgramGeneric = "FTA Program"
	// MPFCitation is the regulation cited for the merchandise processing fee.
	MPFCitation = "19 CFR § 24.23"

	notAvailable      = "N/A"
	specialRateFTA    = "Free (under FTA)"
	estimatedDutyFree = "0% (FTA eligible)"
)

// Requirements is the procedural checklist for claiming FTA treatment.
var Requirements = []string{
	"Certificate of origin required",
	"Direct shipment required",
	"Compliance with applicable rules of origin",
}

// FTAEligibility reports whether the origin qualifies for preferential treatment.
type FTAEligibility struct {
	Eligible     bool     `json:"eligible"`
	Program      string   `json:"program"`
	Reasoning    string   `json:"reasoning"`
	Requirements []string `json:"requirements"`
}

// MPFExemption reports whether the merchandise processing fee applies.
type MPFExemption struct {
	Exempt    bool   `json:"exempt"`
	Reasoning string `json:"reasoning"`
	Citation  string `json:"citation"`
}

// DutyInformation summarizes the duty rates for the top candidate.
type DutyInformation struct {
	GeneralRate    string   `json:"generalRate"`
	SpecialRate    string   `json:"specialRate"`
	ApplicableFTAs []string `json:"applicableFtas"`
	EstimatedDuty  string   `json:"estimatedDuty"`
}

// Result holds the compliance facts for one classification.
type Result struct {
	FTAEligibility  FTAEligibility  `json:"ftaEligibility"`
	MPFExemption    MPFExemption    `json:"mpfExemption"`
	DutyInformation DutyInformation `json:"dutyInformation"`
}

// Evaluate applies the FTA, MPF and duty rules to top. countryName is used in
// reasoning strings; countryCode is the resolved code and may be empty.
//
// MPF exemption mirrors FTA eligibility. Real customs rules treat the two
// separately; the coupling is kept until a distinct MPF rule is sourced.
func Evaluate(top model.Candidate, countryName, countryCode string) Result {
	eligible := Eligible(top.ApplicableFTACountries, countryCode)

	res := Result{
		FTAEligibility: FTAEligibility{
			Eligible:     eligible,
			Program:      ProgramNone,
			Reasoning:    fmt.Sprintf("%s is not covered under FTA programs for this classification", countryName),
			Requirements: []string{},
		},
		MPFExemption: MPFExemption{
			Exempt:    eligible,
			Reasoning: "Standard MPF applies for non-FTA eligible products",
			Citation:  MPFCitation,
		},
		DutyInformation: DutyInformation{
			GeneralRate:    orNA(top.GeneralDutyRate),
			SpecialRate:    orNA(top.SpecialDutyRate),
			ApplicableFTAs: []string{},
			EstimatedDuty:  orNA(top.GeneralDutyRate),
		},
	}

	if !eligible {
		return res
	}

	rules := splitTrim(top.ApplicableFTARules, ";")
	program := ProgramGeneric
	if len(rules) > 0 && rules[0] != "" {
		program = rules[0]
	}

	res.FTAEligibility.Program = program
	res.FTAEligibility.Reasoning = fmt.Sprintf("%s is eligible under applicable FTA programs for this HTS code", countryName)
	res.FTAEligibility.Requirements = append([]string(nil), Requirements...)
	res.MPFExemption.Reasoning = "Products eligible for FTA treatment are typically exempt from MPF"
	res.DutyInformation.SpecialRate = specialRateFTA
	res.DutyInformation.ApplicableFTAs = rules
	res.DutyInformation.EstimatedDuty = estimatedDutyFree
	return res
}

// Eligible reports whether code appears in the comma-separated FTA country
// list after trimming. The empty code is never eligible.
func Eligible(ftaCountries, code string) bool {
	if code == "" {
		return false
	}
	for _, c := range splitTrim(ftaCountries, ",") {
		if c == code {
			return true
		}
	}
	return false
}

// splitTrim splits s on sep and trims each part. An empty s yields no parts.
func splitTrim(s, sep string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, sep)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

package classify

import "github.com/sells-group/hts-classify/internal/model"

const (
	// MatchedConfidence is the overall confidence when the table produced candidates.
	MatchedConfidence = 92
	// FallbackConfidence is the overall confidence when the fallback was served.
	FallbackConfidence = 75
)

// Fallback returns the candidate served when no reference row matches.
func Fallback() model.Candidate {
	return model.Candidate{
		Code:                   "6104.32",
		Description:            "Shirts and shirt-blouses of cotton",
		Reasoning:              "Fallback classification based on AI analysis",
		Confidence:             85,
		GeneralDutyRate:        "16.5%",
		SpecialDutyRate:        "Free (A,AU,BH,CL,CO,D,E,IL,JO,KR,MA,OM,P,PA,PE,S,SG)",
		Column2DutyRate:        "90%",
		ApplicableFTACountries: "A,AU,BH,CL,CO,D,E,IL,JO,KR,MA,OM,P,PA,PE,S,SG",
		ApplicableFTARules:     "CPTPP; US-Australia FTA; US-Bahrain FTA",
	}
}

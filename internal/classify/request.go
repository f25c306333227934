package classify

import (
	"fmt"
	"strings"

	"github.com/sells-group/hts-classify/internal/compliance"
	"github.com/sells-group/hts-classify/internal/model"
)

// Request is one product to classify.
type Request struct {
	ProductTitle    string `json:"productTitle"`
	Description     string `json:"description"`
	CountryOfOrigin string `json:"countryOfOrigin"`
}

// ValidationError lists the request fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("classify: missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Validate returns a *ValidationError when any field is empty after trimming.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ProductTitle) == "" {
		missing = append(missing, "productTitle")
	}
	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(r.CountryOfOrigin) == "" {
		missing = append(missing, "countryOfOrigin")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Response is the full classification result.
type Response struct {
	HSCodes         []model.Candidate          `json:"hsCodes"`
	FTAEligibility  compliance.FTAEligibility  `json:"ftaEligibility"`
	MPFExemption    compliance.MPFExemption    `json:"mpfExemption"`
	DutyInformation compliance.DutyInformation `json:"dutyInformation"`
	Confidence      int                        `json:"confidence"`
}

// Package classify runs one classification: load the reference table, match
// candidates, apply the fallback, and evaluate compliance for the origin.
package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/hts-classify/internal/compliance"
	"github.com/sells-group/hts-classify/internal/matcher"
	"github.com/sells-group/hts-classify/internal/model"
)

// TableLoader returns the reference table for a source. *reference.Loader
// satisfies it.
type TableLoader interface {
	Load(ctx context.Context, sourceID string) *model.Table
}

// CountryResolver maps a country name to its FTA code. *country.Resolver
// satisfies it.
type CountryResolver interface {
	Resolve(name string) string
}

// Recorder receives classification outcomes. *monitoring.Collector satisfies it.
type Recorder interface {
	RecordClassification(matched bool)
	RecordRejection()
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder reports outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithMatcher replaces the default containment matcher.
func WithMatcher(fn func(*model.Table) matcher.Matcher) Option {
	return func(s *Service) { s.newMatcher = fn }
}

// Service classifies products against one reference source.
type Service struct {
	loader     TableLoader
	source     string
	countries  CountryResolver
	recorder   Recorder
	newMatcher func(*model.Table) matcher.Matcher
}

// NewService creates a Service reading sourceID through loader.
func NewService(loader TableLoader, sourceID string, countries CountryResolver, opts ...Option) *Service {
	s := &Service{
		loader:    loader,
		source:    sourceID,
		countries: countries,
		newMatcher: func(t *model.Table) matcher.Matcher {
			return matcher.NewContainment(t)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the reference source the service classifies against.
func (s *Service) Source() string {
	return s.source
}

// Classify validates req and returns its classification. The only error is a
// *ValidationError; an unavailable table or a query with no match still
// produces a result through the fallback candidate.
func (s *Service) Classify(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		if s.recorder != nil {
			s.recorder.RecordRejection()
		}
		return nil, err
	}

	table := s.loader.Load(ctx, s.source)
	candidates := s.newMatcher(table).Match(req.ProductTitle, req.Description)

	matched := len(candidates) > 0
	confidence := MatchedConfidence
	if !matched {
		candidates = []model.Candidate{Fallback()}
		confidence = FallbackConfidence
	}

	code := s.countries.Resolve(req.CountryOfOrigin)
	res := compliance.Evaluate(candidates[0], req.CountryOfOrigin, code)

	zap.L().Debug("classify: classified",
		zap.String("source", s.source),
		zap.Int("table_rows", table.Len()),
		zap.Int("candidates", len(candidates)),
		zap.Bool("fallback", !matched),
		zap.String("top_code", candidates[0].Code),
		zap.String("country_code", code),
		zap.Bool("fta_eligible", res.FTAEligibility.Eligible),
	)

	if s.recorder != nil {
		s.recorder.RecordClassification(matched)
	}

	return &Response{
		HSCodes:         candidates,
		FTAEligibility:  res.FTAEligibility,
		MPFExemption:    res.MPFExemption,
		DutyInformation: res.DutyInformation,
		Confidence:      confidence,
	}, nil
}

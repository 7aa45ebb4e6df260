// Package enrich augments postings with LLM-derived structured fields: a fit
// score, an outreach message, or a tailored CV snippet.
package enrich

import (
	"context"
	"errors"

	"jobscout-engine/internal/domain"
)

// ErrEnrichment wraps transport or schema failures from the adapter. Callers
// treat it as a per-item failure: the row is still written with empty
// enrichment fields and the batch continues.
var ErrEnrichment = errors.New("enrichment failed")

// Profile is the public recruiter profile snippet used as auxiliary context.
type Profile struct {
	Name     string
	Subtitle string
	Location string
}

// Result is the structured output of one enrichment call. Zero Fit means the
// model returned nothing usable.
type Result struct {
	Fit        int    `json:"fit"`
	Message    string `json:"message"`
	TailoredCV string `json:"tailored_cv"`
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Client is the adapter the pipeline calls. Implementations must be pure
// functions of (posting, profile, instruction template): no shared mutable
// state, so calls can run concurrently inside a batch.
type Client interface {
	Enrich(ctx context.Context, p domain.Posting, profile *Profile) (Result, Usage, error)
}

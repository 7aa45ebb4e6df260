// Package scrape walks paginated listing sources and turns result pages into
// postings. The walker owns pagination, within-walk dedupe and pacing; the
// Source implementation owns the site specifics.
package scrape

import (
	"context"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/enrich"
)

// Query is one cell of the search grid.
type Query struct {
	Keyword       string // raw phrase, as configured
	Country       string
	GeoID         string
	WorkType      string // display name, e.g. "Remote"
	WorkTypeCode  string
	ContractCodes []string
	TimePosted    string // site code, "" for no filter
}

// Source is a listing site. ListIDs returns the posting identities visible on
// one result page; Fetch returns the parsed posting plus the raw page body so
// the caller can keep it for diagnosis when extraction came back incomplete.
type Source interface {
	ListIDs(ctx context.Context, q Query, start int) ([]string, error)
	Fetch(ctx context.Context, id string, q Query) (*domain.Posting, string, error)
	FetchProfile(ctx context.Context, link string) (*enrich.Profile, error)
}

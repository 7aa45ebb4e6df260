// Package store persists merged postings. Two backends share one interface:
// a workbook of per-partition worksheets (rewrite-in-full, per-partition
// uniqueness) and a single warehouse table (append-only, global uniqueness).
package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"jobscout-engine/internal/domain"
)

// Mode controls what Merge does when a partition does not exist yet.
type Mode int

const (
	// ModeIncremental skips a whole group with a warning when its partition
	// is missing; it never half-creates partitions.
	ModeIncremental Mode = iota
	// ModeRebuild creates missing partitions.
	ModeRebuild
)

// PartitionKey names the store subdivision a search combination writes into.
type PartitionKey struct {
	Keyword  string
	Country  string
	WorkType string
}

// sheetNameInvalid lists characters worksheet names cannot carry.
var sheetNameInvalid = []string{":", "\\", "/", "?", "*", "[", "]"}

// SheetName renders the key as a worksheet name: long parts truncated, invalid
// characters removed, capped at 31 characters.
func (k PartitionKey) SheetName() string {
	kw, loc := k.Keyword, k.Country
	var name string
	if len(kw) <= 10 && len(loc) <= 10 {
		name = kw + "-" + loc + "-" + k.WorkType
	} else {
		name = truncate(kw, 10) + "-" + truncate(loc, 10) + "-" + k.WorkType
	}
	for _, c := range sheetNameInvalid {
		name = strings.ReplaceAll(name, c, "")
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Store is what the pipeline writes through. Merge must be idempotent: a
// second call with the same records adds zero. ListIncomplete and Update
// serve the retry pass for rows stored with missing mandatory fields.
type Store interface {
	Merge(ctx context.Context, key PartitionKey, records []*domain.Posting) (added int, err error)
	ListIncomplete(ctx context.Context) ([]*domain.Posting, error)
	Update(ctx context.Context, p *domain.Posting) error
	Close() error
}

// timeNow is swapped out in tests.
var timeNow = time.Now

// stampDefaults fills lifecycle fields on a record entering the store for the
// first time. Merge discards duplicates before this runs, so status and notes
// on existing rows survive later merges.
func stampDefaults(p *domain.Posting, now time.Time) {
	if p.Status == "" {
		p.Status = domain.StatusNew
	}
	if p.AddedAt.IsZero() {
		p.AddedAt = now
	}
}

// sortByPublished orders newest first; records without a publish timestamp
// sort as oldest. Identity breaks ties so rewrites are stable.
func sortByPublished(ps []*domain.Posting) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i].PublishedOrZero(), ps[j].PublishedOrZero()
		if !a.Equal(b) {
			return a.After(b)
		}
		return ps[i].Identity < ps[j].Identity
	})
}

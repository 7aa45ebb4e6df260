package run

import (
	"context"
	"log"

	"jobscout-engine/internal/scrape"
)

// Retry re-fetches every stored row that was flagged at extraction time for
// having missed mandatory fields and updates the ones that now parse cleanly.
// Returns how many rows were fixed.
func (o *Orchestrator) Retry(ctx context.Context) (int, error) {
	rows, err := o.st.ListIncomplete(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("[retry] %d flagged rows to re-fetch", len(rows))

	fixed := 0
	for _, old := range rows {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		q := scrape.Query{
			Keyword:  old.Keyword,
			Country:  old.Country,
			WorkType: old.WorkType,
		}
		fresh, _, err := o.src.Fetch(ctx, old.Identity, q)
		if err != nil {
			if ctx.Err() != nil {
				return fixed, ctx.Err()
			}
			log.Printf("[retry] %s still failing: %v", old.Identity, err)
			continue
		}
		if fresh.Incomplete() {
			log.Printf("[retry] %s still incomplete, leaving flagged", old.Identity)
			continue
		}

		fresh.Status = old.Status
		fresh.Notes = old.Notes
		fresh.AddedAt = old.AddedAt
		fresh.NeedsRetry = false
		if err := o.st.Update(ctx, fresh); err != nil {
			log.Printf("[retry] update %s failed: %v", old.Identity, err)
			continue
		}
		fixed++
		log.Printf("[retry] fixed %s: %s at %s", fresh.Identity, fresh.Title, fresh.Org)
	}
	log.Printf("[retry] fixed %d of %d", fixed, len(rows))
	return fixed, nil
}

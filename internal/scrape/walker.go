package scrape

import (
	"context"
	"fmt"
	"log"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/scrape/util"
)

// Walker pages through a Source for one query, fetching details for every
// identity it has not seen within the walk.
type Walker struct {
	src         Source
	pacer       *util.Pacer
	pages       int
	perPage     int
	searchDelay time.Duration
	debug       *DebugStore
}

func NewWalker(src Source, pacer *util.Pacer, pages, perPage int, searchDelay time.Duration, debug *DebugStore) *Walker {
	if pages < 1 {
		pages = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	return &Walker{src: src, pacer: pacer, pages: pages, perPage: perPage, searchDelay: searchDelay, debug: debug}
}

// Walk returns every posting found for q, in discovery order. A failed page
// fetch counts as a page with zero results; a failed detail fetch drops that
// identity only. Walk stops early on an empty page, or on a later page that
// yields nothing new. Only context cancellation is returned as an error.
func (w *Walker) Walk(ctx context.Context, q Query) ([]*domain.Posting, error) {
	seen := mapset.NewSet[string]()
	var out []*domain.Posting

	for page := 0; page < w.pages; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		start := page * w.perPage
		log.Printf("[walk] page %d/%d (start=%d) kw=%q country=%q work_type=%q", page+1, w.pages, start, q.Keyword, q.Country, q.WorkType)

		ids, err := w.src.ListIDs(ctx, q, start)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			log.Printf("[walk] list page failed, treating as empty: %v", err)
			ids = nil
		}
		if len(ids) == 0 {
			log.Printf("[walk] no job cards on page %d, ending walk", page+1)
			break
		}

		newOnPage := 0
		for _, id := range ids {
			if id == "" || seen.Contains(id) {
				continue
			}
			if w.pacer != nil {
				if err := w.pacer.Wait(ctx); err != nil {
					return out, err
				}
			}
			p, body, err := w.fetch(ctx, id, q)
			if err != nil {
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				log.Printf("[walk] posting %s failed: %v", id, err)
				continue
			}
			if p.Incomplete() {
				p.NeedsRetry = true
				if w.debug != nil {
					if path, derr := w.debug.Save(id, body); derr != nil {
						log.Printf("[walk] could not save page body for %s: %v", id, derr)
					} else {
						log.Printf("[walk] posting %s missing title or company, page body saved to %s", id, path)
					}
				}
			}
			out = append(out, p)
			seen.Add(id)
			newOnPage++
		}

		log.Printf("[walk] %d new postings on page %d", newOnPage, page+1)
		if newOnPage == 0 && page > 0 {
			log.Printf("[walk] nothing new past page 1, assuming end of results")
			break
		}
		if page < w.pages-1 && w.searchDelay > 0 {
			if err := sleepCtx(ctx, w.searchDelay); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

// fetch shields the walk from a panicking extractor.
func (w *Walker) fetch(ctx context.Context, id string, q Query) (p *domain.Posting, body string, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return w.src.Fetch(ctx, id, q)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

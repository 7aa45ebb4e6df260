// Package run sequences the pipeline across the search grid: walk, filter
// against the ledger, enrich in batches, persist, advance the ledger.
package run

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"jobscout-engine/internal/batch"
	"jobscout-engine/internal/config"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/enrich"
	"jobscout-engine/internal/ledger"
	"jobscout-engine/internal/scrape"
	"jobscout-engine/internal/scrape/linkedin"
	"jobscout-engine/internal/store"
)

// Summary aggregates what one run did. Every found posting ends up in exactly
// one of Added, Skipped or AlreadySeen.
type Summary struct {
	RunID            string
	Searches         int
	SearchesFailed   int
	Found            int
	AlreadySeen      int
	RowsWritten      int
	Added            int
	Skipped          int
	PromptTokens     int
	CompletionTokens int
	CSVPath          string
}

// Orchestrator owns the single-threaded outer loop. Worker parallelism exists
// only inside the enrichment batch; the orchestrator alone writes the store,
// the CSV and the ledger.
type Orchestrator struct {
	cfg      config.Config
	src      scrape.Source
	walker   *scrape.Walker
	st       store.Store
	led      *ledger.Ledger
	enr      enrich.Client // nil disables enrichment
	csvDir   string
	outreach bool

	mu      sync.Mutex // guards token counters written from enrichment workers
	timeNow func() time.Time
}

func NewOrchestrator(cfg config.Config, src scrape.Source, walker *scrape.Walker, st store.Store, led *ledger.Ledger, enr enrich.Client, csvDir string, outreach bool) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		src:      src,
		walker:   walker,
		st:       st,
		led:      led,
		enr:      enr,
		csvDir:   csvDir,
		outreach: outreach,
		timeNow:  time.Now,
	}
}

// Run walks the full countries x work-types x keywords grid. It returns early
// only on context cancellation; every other failure degrades to a skipped
// item, batch or search.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	runID := o.timeNow().Format("20060102_150405")
	sum := Summary{RunID: runID}

	processed := o.led.Load()
	runNew := mapset.NewSet[string]()
	log.Printf("[run] %s starting, %d identities in ledger", runID, processed.Cardinality())

	out, err := NewRunCSV(o.csvDir, runID, o.outreach)
	if err != nil {
		return sum, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Printf("[run] csv close: %v", cerr)
		}
	}()
	sum.CSVPath = out.Path()

	contractCodes := linkedin.MapContractTypes(o.cfg.Search.ContractTypes)
	timePosted := linkedin.MapTimePosted(o.cfg.Search.TimePosted)

	total := len(o.cfg.Search.Countries) * len(o.cfg.Search.WorkTypes) * len(o.cfg.Search.Keywords)
	combo := 0

	for _, country := range o.cfg.Search.Countries {
		geoID, ok := o.cfg.GeoID(country)
		if !ok {
			log.Printf("[grid] no geo id for country %q, skipping its combinations", country)
			continue
		}
		for _, workType := range o.cfg.Search.WorkTypes {
			code, ok := linkedin.WorkTypeCodes[workType]
			if !ok {
				log.Printf("[grid] unknown work type %q, skipping", workType)
				continue
			}
			for _, kw := range o.cfg.Search.Keywords {
				combo++
				log.Printf("[grid] %d/%d kw=%q country=%q work_type=%q pages=%d", combo, total, kw, country, workType, o.cfg.Search.Pages)

				q := scrape.Query{
					Keyword:       kw,
					Country:       country,
					GeoID:         geoID,
					WorkType:      workType,
					WorkTypeCode:  code,
					ContractCodes: contractCodes,
					TimePosted:    timePosted,
				}
				sum.Searches++
				if err := o.runSearch(ctx, q, runID, processed, runNew, out, &sum); err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return sum, err
					}
					sum.SearchesFailed++
					log.Printf("[grid] search failed: %v", err)
				}
				if err := sleepCtx(ctx, time.Duration(o.cfg.Pacing.SearchDelayMs)*time.Millisecond); err != nil {
					return sum, err
				}
			}
		}
	}

	log.Printf("[run] %s done: searches=%d failed=%d found=%d already_seen=%d rows=%d added=%d skipped=%d tokens=%d/%d",
		runID, sum.Searches, sum.SearchesFailed, sum.Found, sum.AlreadySeen, sum.RowsWritten, sum.Added, sum.Skipped,
		sum.PromptTokens, sum.CompletionTokens)
	return sum, nil
}

// runSearch handles one grid cell end to end. Store writes always precede the
// ledger record for the same identities.
func (o *Orchestrator) runSearch(ctx context.Context, q scrape.Query, runID string, processed, runNew mapset.Set[string], out *RunCSV, sum *Summary) error {
	postings, err := o.walker.Walk(ctx, q)
	if err != nil {
		return err
	}
	sum.Found += len(postings)

	fresh := make([]*domain.Posting, 0, len(postings))
	for _, p := range postings {
		if processed.Contains(p.Identity) || runNew.Contains(p.Identity) {
			sum.AlreadySeen++
			continue
		}
		fresh = append(fresh, p)
	}
	log.Printf("[run] kw=%q country=%q: %d found, %d new", q.Keyword, q.Country, len(postings), len(fresh))
	if len(fresh) == 0 {
		return nil
	}

	key := store.PartitionKey{Keyword: q.Keyword, Country: q.Country, WorkType: q.WorkType}
	workers := o.cfg.Batch.MaxWorkers
	if o.cfg.Batch.Size < workers {
		workers = o.cfg.Batch.Size
	}

	batches := batch.Chunk(fresh, o.cfg.Batch.Size)
	for i, b := range batches {
		log.Printf("[batch] %d/%d (%d items) kw=%q country=%q", i+1, len(batches), len(b), q.Keyword, q.Country)

		kept, outcome, err := batch.Run(ctx, b, workers, func(ctx context.Context, p *domain.Posting) error {
			return o.enrichOne(ctx, p, sum)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[batch] %d/%d aborted, skipping: %v", i+1, len(batches), err)
			continue
		}
		sum.Skipped += outcome.Skipped
		if len(kept) == 0 {
			continue
		}

		batch.SortByOrg(kept)

		if err := out.WriteBatch(kept); err != nil {
			log.Printf("[batch] csv write failed, skipping batch: %v", err)
			continue
		}
		sum.RowsWritten += len(kept)

		added, err := o.st.Merge(ctx, key, kept)
		if err != nil {
			log.Printf("[batch] store merge failed, ledger not advanced: %v", err)
			continue
		}
		sum.Added += added

		for _, p := range kept {
			runNew.Add(p.Identity)
		}
		if err := o.led.Record(runID, runNew); err != nil {
			log.Printf("[batch] ledger record failed: %v", err)
		}
		log.Printf("[batch] wrote %d rows, %d new in store (submitted=%d done=%d skipped=%d)",
			len(kept), added, outcome.Submitted, outcome.Done, outcome.Skipped)
	}
	return nil
}

// enrichOne fills fit/message fields in place. Enrichment failures leave the
// fields empty and keep the row; they never drop the item or the batch.
func (o *Orchestrator) enrichOne(ctx context.Context, p *domain.Posting, sum *Summary) error {
	if o.enr == nil {
		return nil
	}
	var profile *enrich.Profile
	if p.RecruiterLink != "" {
		prof, err := o.src.FetchProfile(ctx, p.RecruiterLink)
		if err != nil {
			log.Printf("[enrich] profile fetch for %s failed: %v", p.Identity, err)
		} else {
			profile = prof
		}
	}
	res, usage, err := o.enr.Enrich(ctx, *p, profile)
	o.mu.Lock()
	sum.PromptTokens += usage.PromptTokens
	sum.CompletionTokens += usage.CompletionTokens
	o.mu.Unlock()
	if err != nil {
		log.Printf("[enrich] %s failed, keeping row without enrichment: %v", p.Identity, err)
		return nil
	}
	p.Fit = res.Fit
	p.Message = res.Message
	p.TailoredCV = res.TailoredCV
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Package batch partitions work into fixed-size batches and runs each batch
// with bounded parallelism. Failures degrade at item granularity; a batch
// never takes down the run and prior batches' committed state is untouched.
package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"jobscout-engine/internal/domain"
)

// Chunk splits items into ceil(len/size) slices preserving order.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

// Outcome counts what happened to one batch.
type Outcome struct {
	Submitted int
	Done      int
	Skipped   int
}

// Run executes work for every item with at most `workers` in flight. An item
// whose work returns an error (or panics) is dropped from the kept slice and
// counted as skipped; the rest of the batch proceeds. The returned error is
// batch-level only (context cancelled mid-batch); the caller skips the whole
// batch and moves on.
//
// Kept items come back in submission order regardless of completion order;
// deterministic persisted order is the caller's sort before write.
func Run[T any](ctx context.Context, items []*T, workers int, work func(context.Context, *T) error) ([]*T, Outcome, error) {
	out := Outcome{Submitted: len(items)}
	if len(items) == 0 {
		return nil, out, nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	var mu sync.Mutex
	failed := make(map[int]bool)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, it := range items {
		i, it := i, it
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = nil
					mu.Lock()
					failed[i] = true
					mu.Unlock()
				}
			}()
			if e := work(gctx, it); e != nil {
				mu.Lock()
				failed[i] = true
				mu.Unlock()
			}
			// item errors never cancel siblings
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, out, fmt.Errorf("batch aborted: %w", err)
	}

	kept := make([]*T, 0, len(items))
	for i, it := range items {
		if failed[i] {
			out.Skipped++
			continue
		}
		kept = append(kept, it)
		out.Done++
	}
	return kept, out, nil
}

// SortByOrg orders postings by organization name, case-insensitive, with
// identity as tiebreaker. Applied before every write so persisted order does
// not depend on worker completion order.
func SortByOrg(ps []*domain.Posting) {
	sort.SliceStable(ps, func(i, j int) bool {
		a := strings.ToLower(ps[i].Org)
		b := strings.ToLower(ps[j].Org)
		if a != b {
			return a < b
		}
		return ps[i].Identity < ps[j].Identity
	})
}

package run

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/config"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/enrich"
	"jobscout-engine/internal/ledger"
	"jobscout-engine/internal/scrape"
	"jobscout-engine/internal/store"
)

type fakeSource struct {
	pages    map[int][]string
	postings map[string]*domain.Posting
	fetchErr map[string]error
}

func (f *fakeSource) ListIDs(_ context.Context, _ scrape.Query, start int) ([]string, error) {
	return f.pages[start], nil
}

func (f *fakeSource) Fetch(_ context.Context, id string, q scrape.Query) (*domain.Posting, string, error) {
	if err := f.fetchErr[id]; err != nil {
		return nil, "", err
	}
	tmpl, ok := f.postings[id]
	if !ok {
		return nil, "", errors.New("unknown id")
	}
	p := *tmpl
	p.Identity = id
	p.Keyword = q.Keyword
	p.Country = q.Country
	p.WorkType = q.WorkType
	return &p, "<html/>", nil
}

func (f *fakeSource) FetchProfile(context.Context, string) (*enrich.Profile, error) {
	return &enrich.Profile{Name: "Jane"}, nil
}

type fakeEnricher struct {
	panicOn string
	failOn  string
}

func (f *fakeEnricher) Enrich(_ context.Context, p domain.Posting, _ *enrich.Profile) (enrich.Result, enrich.Usage, error) {
	if p.Identity == f.panicOn {
		panic("enricher blew up")
	}
	usage := enrich.Usage{PromptTokens: 10, CompletionTokens: 5}
	if p.Identity == f.failOn {
		return enrich.Result{}, usage, enrich.ErrEnrichment
	}
	return enrich.Result{Fit: 7, Message: "hello"}, usage, nil
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Search.Keywords = []string{"Data Engineer"}
	cfg.Search.Countries = []string{"Italy"}
	cfg.Search.WorkTypes = []string{"Remote"}
	cfg.Search.GeoIDs = map[string]string{"Italy": "103350119"}
	cfg.Search.Pages = 1
	cfg.Search.PerPage = 10
	cfg.Batch.Size = 2
	cfg.Batch.MaxWorkers = 2
	return cfg
}

func simplePosting(title, org string) *domain.Posting {
	return &domain.Posting{Title: title, Org: org}
}

func newTestOrchestrator(t *testing.T, src scrape.Source, enr enrich.Client) (*Orchestrator, store.Store, *ledger.Ledger) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.NewWorkbook(filepath.Join(dir, "workbook"), store.ModeRebuild)
	require.NoError(t, err)
	led := ledger.New(filepath.Join(dir, "state", "processed_ids.json"))
	walker := scrape.NewWalker(src, nil, 1, 10, 0, nil)
	o := NewOrchestrator(testConfig(), src, walker, st, led, enr, filepath.Join(dir, "csv"), false)
	return o, st, led
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRun_HappyPath(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]string{0: {"1", "2", "3"}},
		postings: map[string]*domain.Posting{
			"1": simplePosting("Engineer", "Beta"),
			"2": simplePosting("Engineer", "Acme"),
			"3": simplePosting("Engineer", "Gamma"),
		},
	}
	o, _, led := newTestOrchestrator(t, src, &fakeEnricher{})

	sum, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Searches)
	assert.Equal(t, 0, sum.SearchesFailed)
	assert.Equal(t, 3, sum.Found)
	assert.Equal(t, 3, sum.RowsWritten)
	assert.Equal(t, 3, sum.Added)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, 30, sum.PromptTokens)
	assert.Equal(t, 15, sum.CompletionTokens)

	assert.Equal(t, 3, led.Load().Cardinality())

	rows := readCSV(t, sum.CSVPath)
	require.Len(t, rows, 4) // header + 3
	// first batch {1,2} sorted by org: Acme before Beta
	assert.Equal(t, "Acme", rows[1][2])
	assert.Equal(t, "Beta", rows[2][2])
	assert.Equal(t, "7", rows[1][8])
}

func TestRun_SecondRunAddsNothing(t *testing.T) {
	src := &fakeSource{
		pages:    map[int][]string{0: {"1"}},
		postings: map[string]*domain.Posting{"1": simplePosting("Engineer", "Acme")},
	}
	o, _, led := newTestOrchestrator(t, src, nil)

	first, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Added)

	second, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 1, second.AlreadySeen)
	assert.Equal(t, 0, second.RowsWritten)
	assert.Equal(t, 1, led.Load().Cardinality())
}

func TestRun_FailingItemIsolatedToItsBatch(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]string{0: {"1", "2", "3", "4"}},
		postings: map[string]*domain.Posting{
			"1": simplePosting("Engineer", "Acme"),
			"2": simplePosting("Engineer", "Beta"),
			"3": simplePosting("Engineer", "Gamma"),
			"4": simplePosting("Engineer", "Delta"),
		},
	}
	// batch 1 = {1,2}, batch 2 = {3,4}; 3 panics during enrichment
	o, st, led := newTestOrchestrator(t, src, &fakeEnricher{panicOn: "3"})

	sum, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.RowsWritten)
	assert.Equal(t, 3, sum.Added)
	assert.Equal(t, 1, sum.Skipped)

	ids := led.Load()
	assert.Equal(t, 3, ids.Cardinality())
	assert.False(t, ids.Contains("3"), "skipped item must not advance the ledger")

	stored, err := st.ListIncomplete(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRun_EnrichmentErrorKeepsRowWithEmptyFields(t *testing.T) {
	src := &fakeSource{
		pages:    map[int][]string{0: {"1"}},
		postings: map[string]*domain.Posting{"1": simplePosting("Engineer", "Acme")},
	}
	o, _, led := newTestOrchestrator(t, src, &fakeEnricher{failOn: "1"})

	sum, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.RowsWritten)
	assert.Equal(t, 0, sum.Skipped)
	assert.True(t, led.Load().Contains("1"))

	rows := readCSV(t, sum.CSVPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[1][8]) // fit
	assert.Equal(t, "", rows[1][9]) // message
}

func TestRun_CancelledContext(t *testing.T) {
	src := &fakeSource{
		pages:    map[int][]string{0: {"1"}},
		postings: map[string]*domain.Posting{"1": simplePosting("Engineer", "Acme")},
	}
	o, _, _ := newTestOrchestrator(t, src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_FixesRecoveredRows(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]string{0: {"1", "2"}},
		postings: map[string]*domain.Posting{
			"1": simplePosting("Engineer", "Acme"),
			"2": simplePosting("Engineer", "Beta"),
		},
		fetchErr: map[string]error{"2": errors.New("blocked")},
	}
	o, st, _ := newTestOrchestrator(t, src, nil)

	key := store.PartitionKey{Keyword: "Data Engineer", Country: "Italy", WorkType: "Remote"}
	flagged := &domain.Posting{Identity: "1", NeedsRetry: true, Keyword: "Data Engineer", Country: "Italy", WorkType: "Remote", Notes: "check later"}
	stillBroken := &domain.Posting{Identity: "2", NeedsRetry: true, Keyword: "Data Engineer", Country: "Italy", WorkType: "Remote"}
	_, err := st.Merge(context.Background(), key, []*domain.Posting{flagged, stillBroken})
	require.NoError(t, err)

	fixed, err := o.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	remaining, err := st.ListIncomplete(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "2", remaining[0].Identity)
}

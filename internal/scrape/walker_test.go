package scrape

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/enrich"
)

type fakeSource struct {
	pages   map[int][]string // start position -> ids
	fail    map[string]error // id -> fetch error
	broken  map[string]bool  // id -> parse with missing fields
	listErr map[int]error    // start position -> list error
	fetched []string
}

func (f *fakeSource) ListIDs(_ context.Context, _ Query, start int) ([]string, error) {
	if err := f.listErr[start]; err != nil {
		return nil, err
	}
	return f.pages[start], nil
}

func (f *fakeSource) Fetch(_ context.Context, id string, q Query) (*domain.Posting, string, error) {
	f.fetched = append(f.fetched, id)
	if err := f.fail[id]; err != nil {
		return nil, "", err
	}
	p := &domain.Posting{Identity: id, Title: "Engineer", Org: "Acme", Keyword: q.Keyword}
	if f.broken[id] {
		p.Title, p.Org = "", ""
	}
	return p, "<html>raw " + id + "</html>", nil
}

func (f *fakeSource) FetchProfile(context.Context, string) (*enrich.Profile, error) {
	return nil, errors.New("not implemented")
}

func TestWalk_DedupesWithinWalk(t *testing.T) {
	src := &fakeSource{pages: map[int][]string{
		0: {"1", "2", "1"},
		2: {"2", "3"},
	}}
	w := NewWalker(src, nil, 2, 2, 0, nil)

	out, err := w.Walk(context.Background(), Query{Keyword: "data"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"1", "2", "3"}, src.fetched)
}

func TestWalk_StopsOnEmptyPage(t *testing.T) {
	src := &fakeSource{pages: map[int][]string{0: {"1"}}}
	w := NewWalker(src, nil, 5, 10, 0, nil)

	out, err := w.Walk(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestWalk_StopsWhenLaterPageYieldsNothingNew(t *testing.T) {
	src := &fakeSource{pages: map[int][]string{
		0: {"1", "2"},
		2: {"1", "2"}, // same cards again
		4: {"9"},      // must never be reached
	}}
	w := NewWalker(src, nil, 3, 2, 0, nil)

	out, err := w.Walk(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.NotContains(t, src.fetched, "9")
}

func TestWalk_ListErrorCountsAsEmpty(t *testing.T) {
	src := &fakeSource{
		pages:   map[int][]string{0: {"1"}},
		listErr: map[int]error{10: errors.New("boom")},
	}
	w := NewWalker(src, nil, 2, 10, 0, nil)

	out, err := w.Walk(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestWalk_FetchErrorDropsOnlyThatPosting(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]string{0: {"1", "2", "3"}},
		fail:  map[string]error{"2": errors.New("timeout")},
	}
	w := NewWalker(src, nil, 1, 10, 0, nil)

	out, err := w.Walk(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].Identity)
	assert.Equal(t, "3", out[1].Identity)
}

func TestWalk_IncompletePostingFlaggedAndBodySaved(t *testing.T) {
	dir := t.TempDir()
	debug, err := NewDebugStore(dir)
	require.NoError(t, err)

	src := &fakeSource{
		pages:  map[int][]string{0: {"1", "2"}},
		broken: map[string]bool{"2": true},
	}
	w := NewWalker(src, nil, 1, 10, 0, debug)

	out, err := w.Walk(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.False(t, out[0].NeedsRetry)
	assert.True(t, out[1].NeedsRetry)

	b, err := os.ReadFile(filepath.Join(dir, "debug_html_2.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html>raw 2</html>", string(b))
}

func TestWalk_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{pages: map[int][]string{0: {"1"}}}
	w := NewWalker(src, nil, 1, 10, 0, nil)

	_, err := w.Walk(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

package linkedin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/scrape"
)

func testQuery() scrape.Query {
	return scrape.Query{
		Keyword:       "Data Engineer",
		Country:       "Italy",
		GeoID:         "103350119",
		WorkType:      "Remote",
		WorkTypeCode:  "2",
		ContractCodes: []string{"F", "C"},
		TimePosted:    "r86400",
	}
}

func TestClient_ListIDsAndFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/seeMoreJobPostings/search"):
			_, _ = w.Write([]byte(listPageHTML))
		case r.URL.Path == "/jobPosting/4123456789":
			_, _ = w.Write([]byte(detailPageHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	ctx := context.Background()

	ids, err := c.ListIDs(ctx, testQuery(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"4123456789", "4987654321"}, ids)

	p, body, err := c.Fetch(ctx, "4123456789", testQuery())
	require.NoError(t, err)
	assert.Contains(t, body, "Senior Data Engineer")
	assert.Equal(t, "4123456789", p.Identity)
	assert.Equal(t, "Senior Data Engineer", p.Title)
	assert.Equal(t, "Data Engineer", p.Keyword)
	assert.Equal(t, "Italy", p.Country)
	assert.Equal(t, "Remote", p.WorkType)
}

func TestClient_FetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	_, _, err := c.Fetch(context.Background(), "1", testQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestClient_FetchFallsBackToCanonicalLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body></body></html>"))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	p, _, err := c.Fetch(context.Background(), "77", testQuery())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/jobPosting/77", p.Link)
}

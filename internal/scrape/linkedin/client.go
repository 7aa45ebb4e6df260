package linkedin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/enrich"
	"jobscout-engine/internal/scrape"
)

const (
	defaultBaseURL = "https://www.linkedin.com/jobs-guest/jobs/api"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Client fetches guest-visible posting pages. It implements scrape.Source.
type Client struct {
	baseURL string
	hc      *http.Client
	now     func() time.Time
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 20 * time.Second},
		now:     time.Now,
	}
}

// NewClientWithBaseURL points the client at an alternate host. Tests use it.
func NewClientWithBaseURL(base string) *Client {
	c := NewClient()
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

func (c *Client) listURL(q scrape.Query, start int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/seeMoreJobPostings/search?keywords=%s&location=%s&geoId=%s",
		c.baseURL, EncodeKeyword(q.Keyword), strings.ReplaceAll(q.Country, " ", "%20"), q.GeoID)
	if q.TimePosted != "" {
		fmt.Fprintf(&b, "&f_TPR=%s", q.TimePosted)
	}
	if len(q.ContractCodes) > 0 {
		fmt.Fprintf(&b, "&f_JT=%s", strings.Join(q.ContractCodes, "%2C"))
	}
	fmt.Fprintf(&b, "&f_E=2%%2C3&f_WT=%s&start=%d", q.WorkTypeCode, start)
	return b.String()
}

func (c *Client) detailURL(id string) string {
	return fmt.Sprintf("%s/jobPosting/%s", c.baseURL, id)
}

func (c *Client) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("status %d for %s", res.StatusCode, url)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) ListIDs(ctx context.Context, q scrape.Query, start int) ([]string, error) {
	body, err := c.get(ctx, c.listURL(q, start))
	if err != nil {
		return nil, fmt.Errorf("list page: %w", err)
	}
	ids, err := ExtractListIDs(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse list page: %w", err)
	}
	return ids, nil
}

// Fetch returns the parsed posting and the raw page body. The posting is
// stamped with the identity and the search context it was found under.
func (c *Client) Fetch(ctx context.Context, id string, q scrape.Query) (*domain.Posting, string, error) {
	body, err := c.get(ctx, c.detailURL(id))
	if err != nil {
		return nil, "", fmt.Errorf("posting %s: %w", id, err)
	}
	p, err := ExtractPosting(strings.NewReader(body), c.now())
	if err != nil {
		return nil, body, fmt.Errorf("parse posting %s: %w", id, err)
	}
	p.Identity = id
	p.Keyword = q.Keyword
	p.Country = q.Country
	p.WorkType = q.WorkType
	p.ContractTypes = q.ContractCodes
	if p.Link == "" {
		p.Link = c.detailURL(id)
	}
	return p, body, nil
}

func (c *Client) FetchProfile(ctx context.Context, link string) (*enrich.Profile, error) {
	body, err := c.get(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return ExtractProfile(strings.NewReader(body))
}

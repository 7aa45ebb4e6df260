package linkedin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeKeyword(t *testing.T) {
	assert.Equal(t, "Data%2BEngineer", EncodeKeyword("Data Engineer"))
	assert.Equal(t, "C%2B%2B%2BDeveloper", EncodeKeyword("C++ Developer"))
	assert.Equal(t, "Analyst", EncodeKeyword("  Analyst  "))
}

func TestMapContractTypes(t *testing.T) {
	assert.Equal(t, []string{"F", "C"}, MapContractTypes([]string{"Full-time", "Contract", "Freelance"}))
	assert.Nil(t, MapContractTypes([]string{"Freelance"}))
}

func TestMapTimePosted(t *testing.T) {
	assert.Equal(t, "r86400", MapTimePosted("Past 24 hours"))
	assert.Equal(t, "r604800", MapTimePosted(" Past Week "))
	assert.Equal(t, "", MapTimePosted("Any"))
}

func TestPublishedFrom(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(-30*time.Minute), PublishedFrom("30 minutes ago", now))
	assert.Equal(t, now.Add(-5*time.Hour), PublishedFrom("Posted 5 hours ago", now))
	assert.Equal(t, now.AddDate(0, 0, -3), PublishedFrom("3 days ago", now))
	assert.Equal(t, now.AddDate(0, 0, -14), PublishedFrom("2 weeks ago", now))
	assert.Equal(t, now.AddDate(0, 0, -60), PublishedFrom("2 months ago", now))
	assert.Equal(t, now, PublishedFrom("Just now", now))
	assert.Equal(t, now, PublishedFrom("", now))
}

func TestListURL(t *testing.T) {
	c := NewClient()
	q := testQuery()
	got := c.listURL(q, 20)
	assert.Equal(t,
		"https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search?keywords=Data%2BEngineer&location=Italy&geoId=103350119&f_TPR=r86400&f_JT=F%2CC&f_E=2%2C3&f_WT=2&start=20",
		got)
}

func TestDetailURL(t *testing.T) {
	c := NewClient()
	assert.Equal(t,
		"https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/4123456789",
		c.detailURL("4123456789"))
}

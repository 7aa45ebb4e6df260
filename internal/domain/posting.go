package domain

import "time"

// Status is the lifecycle state of a posting once it lands in the tracker.
type Status string

const (
	StatusNew       Status = "New"
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusRejected  Status = "Rejected"
	StatusOffer     Status = "Offer"
)

// Statuses lists every lifecycle state in display order.
var Statuses = []Status{StatusNew, StatusApplied, StatusInterview, StatusRejected, StatusOffer}

// Posting is a single normalized job listing. Identity is assigned once at
// extraction and never changes; everything else may be filled in later by the
// retry pass or the enrichment step.
type Posting struct {
	Identity string

	Title       string
	Org         string
	Location    string
	Description string

	// PostedAgo is the raw relative-time text from the page ("3 days ago").
	// PublishedAt is the absolute timestamp derived from it at ingestion.
	PostedAgo   string
	PublishedAt *time.Time

	SeniorityLevel string
	EmploymentType string
	JobFunction    string
	Industries     string

	OrgLink string
	Link    string

	RecruiterName    string
	RecruiterTagline string
	RecruiterLink    string

	// Dimension tags, attached by the search that produced the posting.
	Keyword       string
	Country       string
	WorkType      string
	ContractTypes []string

	Status  Status
	Notes   string
	AddedAt time.Time

	// NeedsRetry marks rows stored with missing mandatory fields so a later
	// pass can re-fetch them instead of losing them.
	NeedsRetry bool

	Fit        int
	Message    string
	TailoredCV string
}

// Incomplete reports whether extraction failed to populate the mandatory
// fields. Such postings are still stored, flagged via NeedsRetry.
func (p Posting) Incomplete() bool {
	return p.Title == "" || p.Org == ""
}

// PublishedOrZero returns PublishedAt, or the zero time when the page carried
// no usable relative-time text. Zero sorts as oldest.
func (p Posting) PublishedOrZero() time.Time {
	if p.PublishedAt == nil {
		return time.Time{}
	}
	return *p.PublishedAt
}

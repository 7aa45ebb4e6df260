package store

import (
	"strconv"
	"strings"
	"time"

	"jobscout-engine/internal/domain"
)

const timeFmt = "2006-01-02 15:04:05"

// worksheetColumns is the fixed header of every partition worksheet.
var worksheetColumns = []string{
	"id", "title", "org", "location", "published_at", "posted_ago",
	"seniority_level", "employment_type", "job_function", "industries",
	"status", "notes", "added_at", "link", "org_link",
	"keyword", "country", "work_type", "contract_types",
	"needs_retry", "fit", "message", "description",
}

func encodeRow(p *domain.Posting) []string {
	published := ""
	if p.PublishedAt != nil && !p.PublishedAt.IsZero() {
		published = p.PublishedAt.Format(timeFmt)
	}
	added := ""
	if !p.AddedAt.IsZero() {
		added = p.AddedAt.Format(timeFmt)
	}
	needsRetry := ""
	if p.NeedsRetry {
		needsRetry = "1"
	}
	fit := ""
	if p.Fit > 0 {
		fit = strconv.Itoa(p.Fit)
	}
	return []string{
		p.Identity, p.Title, p.Org, p.Location, published, p.PostedAgo,
		p.SeniorityLevel, p.EmploymentType, p.JobFunction, p.Industries,
		string(p.Status), p.Notes, added, p.Link, p.OrgLink,
		p.Keyword, p.Country, p.WorkType, strings.Join(p.ContractTypes, ","),
		needsRetry, fit, p.Message, p.Description,
	}
}

func decodeRow(rec []string) *domain.Posting {
	get := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	p := &domain.Posting{
		Identity:       get(0),
		Title:          get(1),
		Org:            get(2),
		Location:       get(3),
		PostedAgo:      get(5),
		SeniorityLevel: get(6),
		EmploymentType: get(7),
		JobFunction:    get(8),
		Industries:     get(9),
		Status:         domain.Status(get(10)),
		Notes:          get(11),
		Link:           get(13),
		OrgLink:        get(14),
		Keyword:        get(15),
		Country:        get(16),
		WorkType:       get(17),
		NeedsRetry:     get(19) == "1",
		Message:        get(21),
		Description:    get(22),
	}
	if t, err := time.Parse(timeFmt, get(4)); err == nil {
		p.PublishedAt = &t
	}
	if t, err := time.Parse(timeFmt, get(12)); err == nil {
		p.AddedAt = t
	}
	if cts := get(18); cts != "" {
		p.ContractTypes = strings.Split(cts, ",")
	}
	if n, err := strconv.Atoi(get(20)); err == nil {
		p.Fit = n
	}
	return p
}

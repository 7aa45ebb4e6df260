package linkedin

import (
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/enrich"
	"jobscout-engine/internal/identity"
	"jobscout-engine/internal/scrape/util"
)

// ExtractListIDs pulls the posting identities out of a result page. Cards
// carry the identity in a data-entity-urn attribute; anything without one is
// not a job card and is skipped.
func ExtractListIDs(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	var ids []string
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		urn, ok := li.Find("div.base-card").First().Attr("data-entity-urn")
		if !ok {
			return
		}
		id, err := identity.FromURN(urn)
		if err != nil {
			return
		}
		ids = append(ids, id)
	})
	return ids, nil
}

// ExtractPosting parses a posting detail page. Missing fields stay empty;
// the caller decides whether the record is complete enough to keep as-is.
func ExtractPosting(r io.Reader, now time.Time) (*domain.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	p := &domain.Posting{
		Title:            text(doc.Find("h2.top-card-layout__title").First()),
		Org:              text(doc.Find("a.topcard__org-name-link").First()),
		Location:         util.NormalizeLocation(text(doc.Find("span.topcard__flavor--bullet").First())),
		PostedAgo:        text(doc.Find("span.posted-time-ago__text").First()),
		RecruiterName:    text(doc.Find("h3.base-main-card__title--link").First()),
		RecruiterTagline: text(doc.Find("h4.base-main-card__subtitle").First()),
		Description:      description(doc),
		Link:             href(doc.Find(`a.topcard__link[data-tracking-control-name="public_jobs_topcard-title"]`).First()),
		OrgLink:          href(doc.Find(`a.topcard__org-name-link[data-tracking-control-name="public_jobs_topcard-org-name"]`).First()),
		RecruiterLink:    href(doc.Find("div.message-the-recruiter a.base-card__full-link").First()),
	}

	doc.Find("li.description__job-criteria-item").Each(func(_ int, li *goquery.Selection) {
		header := text(li.Find("h3.description__job-criteria-subheader").First())
		value := text(li.Find("span.description__job-criteria-text--criteria").First())
		switch header {
		case "Seniority level":
			p.SeniorityLevel = value
		case "Employment type":
			p.EmploymentType = value
		case "Job function":
			p.JobFunction = value
		case "Industries":
			p.Industries = value
		}
	})

	published := PublishedFrom(p.PostedAgo, now)
	p.PublishedAt = &published
	return p, nil
}

// ExtractProfile parses a public member profile page down to the three fields
// the enrichment prompt uses.
func ExtractProfile(r io.Reader) (*enrich.Profile, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &enrich.Profile{
		Name:     text(doc.Find("h1.top-card-layout__title").First()),
		Subtitle: text(doc.Find("h2.top-card-layout__headline").First()),
		Location: text(doc.Find("div.top-card-layout__first-subline span").First()),
	}, nil
}

// description flattens the rich description container: paragraphs become
// paragraphs, list items become "- " bullets, blocks joined by blank lines.
func description(doc *goquery.Document) string {
	container := doc.Find("div.show-more-less-html__markup").First()
	if container.Length() == 0 {
		return ""
	}
	var parts []string
	container.Find("p, ul").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "ul" {
			var bullets []string
			s.Find("li").Each(func(_ int, li *goquery.Selection) {
				bullets = append(bullets, "- "+text(li))
			})
			if len(bullets) > 0 {
				parts = append(parts, strings.Join(bullets, "\n"))
			}
			return
		}
		if t := text(s); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}

func text(s *goquery.Selection) string {
	return util.CleanText(s.Text())
}

func href(s *goquery.Selection) string {
	h, _ := s.Attr("href")
	return strings.TrimSpace(h)
}

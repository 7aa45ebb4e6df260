package run

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"jobscout-engine/internal/domain"
)

var searchColumns = []string{
	"job title", "description", "company name", "company linkedin url",
	"job url", "upload date", "hiring manager name", "hiring manager linkedin url",
	"fit", "message",
}

var outreachColumns = append(append([]string{}, searchColumns...), "tailored cv")

// RunCSV is the per-run flat output next to the store. Every batch is flushed
// and fsynced as soon as it is written, so a crash loses at most the batch in
// flight.
type RunCSV struct {
	path     string
	f        *os.File
	w        *csv.Writer
	outreach bool
}

func NewRunCSV(dir, runID string, outreach bool) (*RunCSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv mkdir: %w", err)
	}
	prefix := "jobs"
	cols := searchColumns
	if outreach {
		prefix = "outreach"
		cols = outreachColumns
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, runID))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv create: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv header: %w", err)
	}
	return &RunCSV{path: path, f: f, w: w, outreach: outreach}, nil
}

func (c *RunCSV) Path() string { return c.path }

// WriteBatch appends one row per posting and forces the batch to disk.
func (c *RunCSV) WriteBatch(ps []*domain.Posting) error {
	for _, p := range ps {
		if err := c.w.Write(c.row(p)); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	if err := c.f.Sync(); err != nil {
		return fmt.Errorf("csv fsync: %w", err)
	}
	return nil
}

func (c *RunCSV) row(p *domain.Posting) []string {
	upload := p.PostedAgo
	if p.PublishedAt != nil {
		upload = p.PublishedAt.Format("2006-01-02 15:04:05")
	}
	fit := ""
	if p.Fit > 0 {
		fit = fmt.Sprintf("%d", p.Fit)
	}
	row := []string{
		p.Title, p.Description, p.Org, p.OrgLink,
		p.Link, upload, p.RecruiterName, p.RecruiterLink,
		fit, p.Message,
	}
	if c.outreach {
		row = append(row, p.TailoredCV)
	}
	return row
}

func (c *RunCSV) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}

package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"jobscout-engine/internal/domain"
)

const summarySheet = "Summary.csv"

// Workbook is the spreadsheet-like backend: one CSV worksheet per partition
// plus an aggregate Summary worksheet. Merges rewrite a worksheet in full;
// uniqueness is per partition, so the same identity may appear under two
// different search combinations.
type Workbook struct {
	dir  string
	mode Mode
}

func NewWorkbook(dir string, mode Mode) (*Workbook, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workbook mkdir: %w", err)
	}
	return &Workbook{dir: dir, mode: mode}, nil
}

func (w *Workbook) sheetPath(key PartitionKey) string {
	return filepath.Join(w.dir, key.SheetName()+".csv")
}

func (w *Workbook) Merge(ctx context.Context, key PartitionKey, records []*domain.Posting) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path := w.sheetPath(key)
	_, statErr := os.Stat(path)
	missing := errors.Is(statErr, os.ErrNotExist)
	if missing && w.mode == ModeIncremental {
		log.Printf("[store] worksheet %s does not exist; skipping %d records (incremental mode)", key.SheetName(), len(records))
		return 0, nil
	}

	var members []*domain.Posting
	if !missing {
		var err error
		members, err = readSheet(path)
		if err != nil {
			return 0, fmt.Errorf("load worksheet %s: %w", key.SheetName(), err)
		}
	}

	ids := mapset.NewSet[string]()
	for _, m := range members {
		ids.Add(m.Identity)
	}

	now := timeNow()
	added := 0
	for _, rec := range records {
		if rec.Identity == "" || ids.Contains(rec.Identity) {
			// existing rows keep their status and notes
			continue
		}
		stampDefaults(rec, now)
		members = append(members, rec)
		ids.Add(rec.Identity)
		added++
	}
	if added == 0 && !missing {
		return 0, nil
	}

	sortByPublished(members)

	if err := writeSheet(path, members); err != nil {
		w.dumpFallback(members)
		return 0, fmt.Errorf("rewrite worksheet %s: %w", key.SheetName(), err)
	}
	if err := w.writeSummary(); err != nil {
		log.Printf("[store] summary rewrite failed: %v", err)
	}
	return added, nil
}

// ListIncomplete returns rows flagged at extraction time for the retry pass.
func (w *Workbook) ListIncomplete(ctx context.Context) ([]*domain.Posting, error) {
	sheets, err := w.sheetFiles()
	if err != nil {
		return nil, err
	}
	var out []*domain.Posting
	for _, path := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		members, err := readSheet(path)
		if err != nil {
			log.Printf("[store] skipping unreadable worksheet %s: %v", filepath.Base(path), err)
			continue
		}
		for _, m := range members {
			if m.NeedsRetry {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// Update replaces the row with p's identity wherever it appears, preserving
// lifecycle fields the caller left empty.
func (w *Workbook) Update(ctx context.Context, p *domain.Posting) error {
	sheets, err := w.sheetFiles()
	if err != nil {
		return err
	}
	found := false
	for _, path := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		members, err := readSheet(path)
		if err != nil {
			continue
		}
		changed := false
		for i, m := range members {
			if m.Identity != p.Identity {
				continue
			}
			merged := *p
			if merged.Status == "" {
				merged.Status = m.Status
			}
			if merged.Notes == "" {
				merged.Notes = m.Notes
			}
			if merged.AddedAt.IsZero() {
				merged.AddedAt = m.AddedAt
			}
			members[i] = &merged
			changed = true
			found = true
		}
		if changed {
			sortByPublished(members)
			if err := writeSheet(path, members); err != nil {
				return fmt.Errorf("rewrite worksheet %s: %w", filepath.Base(path), err)
			}
		}
	}
	if !found {
		return fmt.Errorf("update: identity %s not present in any worksheet", p.Identity)
	}
	return nil
}

func (w *Workbook) Close() error { return nil }

func (w *Workbook) sheetFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("workbook readdir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".csv" || name == summarySheet {
			continue
		}
		if len(name) > 9 && name[:9] == "fallback_" {
			continue
		}
		out = append(out, filepath.Join(w.dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// writeSummary rewrites the aggregate worksheet with per-partition counts.
func (w *Workbook) writeSummary() error {
	sheets, err := w.sheetFiles()
	if err != nil {
		return err
	}
	rows := [][]string{{"Search", "Jobs Found", "Newest Job", "New", "Applied", "Interview", "Offer", "Rejected"}}
	for _, path := range sheets {
		members, err := readSheet(path)
		if err != nil || len(members) == 0 {
			continue
		}
		counts := map[domain.Status]int{}
		for _, m := range members {
			counts[m.Status]++
		}
		sortByPublished(members)
		newest := ""
		if t := members[0].PublishedOrZero(); !t.IsZero() {
			newest = t.Format(timeFmt)
		}
		base := filepath.Base(path)
		rows = append(rows, []string{
			base[:len(base)-len(".csv")],
			strconv.Itoa(len(members)),
			newest,
			strconv.Itoa(counts[domain.StatusNew]),
			strconv.Itoa(counts[domain.StatusApplied]),
			strconv.Itoa(counts[domain.StatusInterview]),
			strconv.Itoa(counts[domain.StatusOffer]),
			strconv.Itoa(counts[domain.StatusRejected]),
		})
	}
	return writeRows(filepath.Join(w.dir, summarySheet), rows)
}

// dumpFallback writes the merged in-memory set to a timestamped CSV so a
// failed worksheet rewrite never loses computed rows.
func (w *Workbook) dumpFallback(members []*domain.Posting) {
	path := filepath.Join(w.dir, fmt.Sprintf("fallback_%s.csv", time.Now().Format("20060102_150405")))
	if err := writeSheet(path, members); err != nil {
		log.Printf("[store] fallback dump failed too: %v", err)
		return
	}
	log.Printf("[store] wrote fallback dump %s (%d rows)", path, len(members))
}

func readSheet(path string) ([]*domain.Posting, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) <= 1 {
		return nil, nil
	}
	out := make([]*domain.Posting, 0, len(recs)-1)
	for _, rec := range recs[1:] {
		out = append(out, decodeRow(rec))
	}
	return out, nil
}

func writeSheet(path string, members []*domain.Posting) error {
	rows := make([][]string, 0, len(members)+1)
	rows = append(rows, worksheetColumns)
	for _, m := range members {
		rows = append(rows, encodeRow(m))
	}
	return writeRows(path, rows)
}

// writeRows is temp-file + fsync + rename so a crash mid-rewrite leaves the
// previous worksheet intact.
func writeRows(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sheet-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cw := csv.NewWriter(tmp)
	if err := cw.WriteAll(rows); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

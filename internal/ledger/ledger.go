// Package ledger tracks which posting identities were handled in which run.
// The on-disk shape is a JSON object mapping run ids to identity lists; a
// legacy flat array is still accepted and treated as one synthetic run.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofrs/flock"
)

// LegacyRunID keys entries migrated from the old flat-array file shape.
const LegacyRunID = "legacy"

type Ledger struct {
	path string
	lock *flock.Flock
}

func New(path string) *Ledger {
	return &Ledger{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Load returns the union of identities across all recorded runs. A missing,
// empty, or corrupt ledger file yields an empty set, never an error: losing
// dedupe history is recoverable, aborting the run over it is not.
func (l *Ledger) Load() mapset.Set[string] {
	out := mapset.NewSet[string]()
	for _, ids := range l.readAll() {
		out.Append(ids...)
	}
	return out
}

// Runs returns the raw run-id → identities mapping (legacy array included
// under LegacyRunID).
func (l *Ledger) Runs() map[string][]string {
	return l.readAll()
}

// RunOf reports which run first recorded an identity, for downstream steps
// that want to reuse per-run caches. Run ids sort chronologically because
// they are timestamps.
func (l *Ledger) RunOf(id string) (string, bool) {
	runs := l.readAll()
	keys := make([]string, 0, len(runs))
	for k := range runs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range runs[k] {
			if v == id {
				return k, true
			}
		}
	}
	return "", false
}

// Record overwrites the entry for runID with ids. Union-merging with earlier
// runs is the caller's job before calling. Safe to call after every batch:
// repeated calls with a growing set for the same run are idempotent, and the
// write is temp-file + rename so a crash leaves the previous file intact.
func (l *Ledger) Record(runID string, ids mapset.Set[string]) error {
	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("ledger lock: %w", err)
	}
	defer func() { _ = l.lock.Unlock() }()

	existing := l.readAll()
	sorted := ids.ToSlice()
	sort.Strings(sorted)
	existing[runID] = sorted

	b, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("ledger marshal: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ledger mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("ledger temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger close: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger rename: %w", err)
	}
	return nil
}

// readAll parses the file tolerating both shapes. Unparseable content is
// logged and treated as empty.
func (l *Ledger) readAll() map[string][]string {
	out := map[string][]string{}

	b, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[ledger] read %s: %v (treating as empty)", l.path, err)
		}
		return out
	}

	var byRun map[string][]string
	if err := json.Unmarshal(b, &byRun); err == nil {
		return byRun
	}

	var flat []string
	if err := json.Unmarshal(b, &flat); err == nil {
		out[LegacyRunID] = flat
		return out
	}

	log.Printf("[ledger] %s is not valid JSON (treating as empty)", l.path)
	return out
}

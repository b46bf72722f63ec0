// Package snapshot persists fetched observation sets as local JSON files
// and reads them back for history reporting. One file per fetch; files are
// append-only and never deleted here.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/macrolens/internal/fred"
)

// Record is one persisted fetch result. SavedAt is the capture instant and
// the recency sort key; the filename only identifies the record.
type Record struct {
	SeriesID         string             `json:"series_id"`
	SavedAt          time.Time          `json:"saved_at"`
	RealtimeStart    string             `json:"realtime_start,omitempty"`
	RealtimeEnd      string             `json:"realtime_end,omitempty"`
	ObservationStart string             `json:"observation_start,omitempty"`
	ObservationEnd   string             `json:"observation_end,omitempty"`
	Units            string             `json:"units,omitempty"`
	OutputType       int                `json:"output_type,omitempty"`
	SortOrder        string             `json:"sort_order,omitempty"`
	Limit            int                `json:"limit,omitempty"`
	Offset           int                `json:"offset,omitempty"`
	Count            int                `json:"count"`
	Observations     []fred.Observation `json:"observations"`
}

// NewRecord builds a Record from a response envelope. When limit > 0
// the observation list is truncated to the first limit entries before
// persistence; the Count echo keeps the upstream total.
func NewRecord(seriesID string, resp *fred.ObservationsResponse, limit int) Record {
	rec := Record{SeriesID: seriesID}
	if resp == nil {
		return rec
	}
	obs := resp.Observations
	if limit > 0 && len(obs) > limit {
		obs = obs[:limit]
	}
	rec.RealtimeStart = resp.RealtimeStart
	rec.RealtimeEnd = resp.RealtimeEnd
	rec.ObservationStart = resp.ObservationStart
	rec.ObservationEnd = resp.ObservationEnd
	rec.Units = resp.Units
	rec.OutputType = resp.OutputType
	rec.SortOrder = resp.SortOrder
	rec.Limit = resp.Limit
	rec.Offset = resp.Offset
	rec.Count = resp.Count
	rec.Observations = obs
	return rec
}

// SaveResult reports the outcome of a best-effort write. A non-nil Err
// means the snapshot was lost but the fetch itself still succeeded.
type SaveResult struct {
	Path string
	Err  error
}

// Store reads and writes snapshot files under a single root directory.
type Store struct {
	dir string
	log *zap.Logger
}

// NewStore creates a Store rooted at dir. The directory is created lazily
// on first save. A nil logger is replaced with a no-op one.
func NewStore(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log}
}

// Dir returns the storage root.
func (s *Store) Dir() string { return s.dir }

// Save writes rec as one pretty-printed JSON file. It never fails the
// caller: storage problems come back inside the SaveResult so a lost
// snapshot cannot turn a successful fetch into an error.
func (s *Store) Save(rec Record) SaveResult {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}

	name := fmt.Sprintf("%s_%s.json", rec.SeriesID, rec.SavedAt.Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return SaveResult{Path: path, Err: fmt.Errorf("create snapshot dir %s: %w", s.dir, err)}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return SaveResult{Path: path, Err: fmt.Errorf("encode snapshot: %w", err)}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return SaveResult{Path: path, Err: fmt.Errorf("write snapshot %s: %w", path, err)}
	}
	return SaveResult{Path: path}
}

// List returns the snapshot filenames whose name contains seriesID,
// compared case-insensitively, newest first. A missing storage root is
// an empty history, not an error.
func (s *Store) List(seriesID string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot dir %s: %w", s.dir, err)
	}

	needle := strings.ToLower(seriesID)
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name()), needle) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// LoadRecent returns up to maxCount records whose filename starts with
// seriesID (case-insensitive), most recent first by SavedAt with the
// filename as tiebreaker. Files that fail to parse are skipped so one
// corrupt snapshot cannot hide the rest of the history.
func (s *Store) LoadRecent(seriesID string, maxCount int) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot dir %s: %w", s.dir, err)
	}

	prefix := strings.ToLower(seriesID)
	type loaded struct {
		rec  Record
		name string
	}
	var found []loaded
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(e.Name()), prefix) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Debug("skipping unreadable snapshot", zap.String("path", path), zap.Error(err))
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			s.log.Debug("skipping corrupt snapshot", zap.String("path", path), zap.Error(err))
			continue
		}
		found = append(found, loaded{rec: rec, name: e.Name()})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].rec.SavedAt.Equal(found[j].rec.SavedAt) {
			return found[i].rec.SavedAt.After(found[j].rec.SavedAt)
		}
		return found[i].name > found[j].name
	})

	if maxCount > 0 && len(found) > maxCount {
		found = found[:maxCount]
	}
	recs := make([]Record, len(found))
	for i, f := range found {
		recs[i] = f.rec
	}
	return recs, nil
}

// ListAllSeries returns the distinct series ids present in the store:
// the portion of each filename before the first underscore, upper-cased,
// deduplicated and sorted.
func (s *Store) ListAllSeries() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot dir %s: %w", s.dir, err)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id, _, ok := strings.Cut(e.Name(), "_")
		if !ok || id == "" {
			continue
		}
		seen[strings.ToUpper(id)] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

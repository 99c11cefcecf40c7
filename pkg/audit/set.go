// Package audit holds scored record snapshots and the pipeline that builds them.
package audit

import (
	"sort"
	"strings"

	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
)

// Predicate selects records for a subset
type Predicate func(models.ScoredRecord) bool

// Set is an immutable snapshot of scored records. Filtering returns a new Set;
// the records of a Set are never modified after construction.
type Set struct {
	records []models.ScoredRecord
}

// NewSet copies records into a snapshot
func NewSet(records []models.ScoredRecord) *Set {
	return &Set{records: append([]models.ScoredRecord(nil), records...)}
}

// Len returns the number of records; a nil Set is empty
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Records returns a copy of the records in their original order
func (s *Set) Records() []models.ScoredRecord {
	if s == nil {
		return nil
	}
	return append([]models.ScoredRecord(nil), s.records...)
}

// Subset returns the records for which keep is true, preserving order.
// A nil predicate keeps everything.
func (s *Set) Subset(keep Predicate) *Set {
	if s == nil {
		return &Set{}
	}
	if keep == nil {
		return &Set{records: s.records}
	}
	var out []models.ScoredRecord
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Set{records: out}
}

// Distinct lists the values of a categorical field present in the set, sorted.
// Empty values are reported as stats.UnknownKey.
func (s *Set) Distinct(field string) []string {
	key := stats.KeyFor(field)
	seen := make(map[string]bool)
	var values []string
	for _, r := range s.Records() {
		v := key(r)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

// Where matches records whose field equals value, ignoring case and
// surrounding space. An empty value matches everything.
func Where(field, value string) Predicate {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return func(r models.ScoredRecord) bool {
		return strings.EqualFold(strings.TrimSpace(r.Field(field)), value)
	}
}

// All combines predicates; nil entries are ignored
func All(preds ...Predicate) Predicate {
	var active []Predicate
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(r models.ScoredRecord) bool {
		for _, p := range active {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Matched keeps records with a ground truth match
func Matched(r models.ScoredRecord) bool {
	return r.Matched()
}

package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/kass/go-geo-audit/pkg/models"
)

// UnknownKey labels records with an empty categorical value
const UnknownKey = "Unknown"

// KeyFunc extracts a categorical value from a record
type KeyFunc func(models.ScoredRecord) string

// KeyFor returns a KeyFunc reading the named field, mapping empty values to
// UnknownKey. Field names are those accepted by ScoredRecord.Field.
func KeyFor(field string) KeyFunc {
	return func(r models.ScoredRecord) string {
		v := strings.TrimSpace(r.Field(field))
		if v == "" {
			return UnknownKey
		}
		return v
	}
}

var (
	ByDevice      = KeyFor("device")
	ByTech        = KeyFor("tech")
	BySource      = KeyFor("locationSource")
	ByParticipant = KeyFor("participant")
	ByFloor       = KeyFor("floor")
	ByCarrier     = KeyFor("carrier")
	ByBuilding    = KeyFor("building")
	ByStage       = KeyFor("stage")
)

// Bucket aggregates a record subset. Error slices hold only scored records
// and are sorted ascending; vertical errors are absolute.
type Bucket struct {
	Count            int            `json:"count"`
	HorizontalErrors []float64      `json:"horizontalErrors"`
	VerticalErrors   []float64      `json:"verticalErrors"`
	Categories       map[string]int `json:"categories"`
}

// NewBucket fills a bucket from records. category may be nil.
func NewBucket(records []models.ScoredRecord, category KeyFunc) *Bucket {
	b := &Bucket{Categories: make(map[string]int)}
	for _, r := range records {
		b.add(r, category)
	}
	sort.Float64s(b.HorizontalErrors)
	sort.Float64s(b.VerticalErrors)
	return b
}

func (b *Bucket) add(r models.ScoredRecord, category KeyFunc) {
	b.Count++
	if r.HorizontalErrorMeters != nil {
		b.HorizontalErrors = append(b.HorizontalErrors, *r.HorizontalErrorMeters)
	}
	if r.VerticalErrorMeters != nil {
		b.VerticalErrors = append(b.VerticalErrors, math.Abs(*r.VerticalErrorMeters))
	}
	if category != nil {
		b.Categories[category(r)]++
	}
}

// Scored returns how many records in the bucket carry computed errors
func (b *Bucket) Scored() int {
	return len(b.HorizontalErrors)
}

// HorizontalPercentile returns the p-th percentile of horizontal error
func (b *Bucket) HorizontalPercentile(p float64) float64 {
	return percentileSorted(b.HorizontalErrors, p)
}

// VerticalPercentile returns the p-th percentile of absolute vertical error
func (b *Bucket) VerticalPercentile(p float64) float64 {
	return percentileSorted(b.VerticalErrors, p)
}

// Share returns the fraction of bucket records in category key
func (b *Bucket) Share(key string) float64 {
	if b.Count == 0 {
		return 0
	}
	return float64(b.Categories[key]) / float64(b.Count)
}

// TopCategories returns category keys ordered by count, then name
func (b *Bucket) TopCategories() []string {
	keys := make([]string, 0, len(b.Categories))
	for k := range b.Categories {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := b.Categories[keys[i]], b.Categories[keys[j]]
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	return keys
}

package stats

import (
	"sort"

	"github.com/kass/go-geo-audit/pkg/models"
)

// Group is the aggregate of one partition produced by GroupBy
type Group struct {
	Key    string `json:"key"`
	Count  int    `json:"count"`
	Scored int    `json:"scored"`

	HorizontalPercentile float64 `json:"horizontalPercentile"`
	VerticalPercentile   float64 `json:"verticalPercentile"`

	HorizontalFailures int     `json:"horizontalFailures"`
	VerticalFailures   int     `json:"verticalFailures"`
	HorizontalFailRate float64 `json:"horizontalFailRate"`
	VerticalFailRate   float64 `json:"verticalFailRate"`

	// Breakdown counts the sub-category of each record in the partition,
	// e.g. technology usage per device
	Breakdown map[string]int `json:"breakdown"`

	bucket *Bucket
}

// Share returns the fraction of the group's records in breakdown category key
func (g Group) Share(key string) float64 {
	if g.bucket == nil {
		return 0
	}
	return g.bucket.Share(key)
}

// TopBreakdown returns breakdown keys ordered by count
func (g Group) TopBreakdown() []string {
	if g.bucket == nil {
		return nil
	}
	return g.bucket.TopCategories()
}

// GroupBy partitions records by key and aggregates each partition.
// Groups are ordered worst first by horizontal percentile, ties by key.
// breakdown may be nil.
func GroupBy(records []models.ScoredRecord, key KeyFunc, breakdown KeyFunc, th Thresholds) []Group {
	partitions := make(map[string][]models.ScoredRecord)
	for _, r := range records {
		k := key(r)
		partitions[k] = append(partitions[k], r)
	}

	groups := make([]Group, 0, len(partitions))
	for k, members := range partitions {
		b := NewBucket(members, breakdown)
		g := Group{
			Key:                  k,
			Count:                b.Count,
			Scored:               b.Scored(),
			HorizontalPercentile: b.HorizontalPercentile(th.Percentile),
			VerticalPercentile:   b.VerticalPercentile(th.Percentile),
			Breakdown:            b.Categories,
			bucket:               b,
		}
		for _, r := range members {
			c := Classify(r, th)
			if c.HorizontalFail {
				g.HorizontalFailures++
			}
			if c.VerticalFail {
				g.VerticalFailures++
			}
		}
		g.HorizontalFailRate = rate(g.HorizontalFailures, g.Scored)
		g.VerticalFailRate = rate(g.VerticalFailures, g.Scored)
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].HorizontalPercentile != groups[j].HorizontalPercentile {
			return groups[i].HorizontalPercentile > groups[j].HorizontalPercentile
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

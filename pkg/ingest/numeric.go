package ingest

import (
	"math"
	"strconv"
	"strings"
)

// Number parses a numeric cell. Empty, non-numeric and non-finite values
// become 0; this leniency is part of the output contract.
func Number(s string) float64 {
	v, ok := parseFloat(s)
	if !ok {
		return 0
	}
	return v
}

// OptionalNumber parses a numeric cell whose presence matters.
// It returns nil when the cell is empty or not a finite number.
func OptionalNumber(s string) *float64 {
	v, ok := parseFloat(s)
	if !ok {
		return nil
	}
	return &v
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

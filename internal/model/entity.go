package model

import "fmt"

// EntityKind identifies what a recognized span of question text refers to.
type EntityKind string

const (
	EntityState     EntityKind = "state"
	EntityCrop      EntityKind = "crop"
	EntityMetric    EntityKind = "metric"
	EntityYearPoint EntityKind = "year_point"
	EntityYearRange EntityKind = "year_range"
	EntityKeyword   EntityKind = "keyword"
)

// Entity is a recognized vocabulary match inside the question text.
// Entities are derived facts: they feed intent construction and are
// discarded afterwards.
type Entity struct {
	Kind  EntityKind `json:"kind"`
	Value string     `json:"value"`
	Span  [2]int     `json:"span"` // byte offsets into the normalized text
}

// YearRange is an inclusive span of years.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Distinct returns the number of distinct years covered by the range.
func (r YearRange) Distinct() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r YearRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

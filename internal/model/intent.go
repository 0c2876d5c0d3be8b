package model

// Archetype is one of the recognized question shapes.
type Archetype string

const (
	ArchetypeComparison  Archetype = "comparison"
	ArchetypeTrend       Archetype = "trend"
	ArchetypeCorrelation Archetype = "correlation"
	ArchetypeRanking     Archetype = "ranking"
	ArchetypeAggregation Archetype = "aggregation"
	ArchetypeCurrent     Archetype = "current"
)

// Domain is the subject area of a metric.
type Domain string

const (
	DomainAgriculture Domain = "agriculture"
	DomainClimate     Domain = "climate"
	DomainMarket      Domain = "market"
)

// DataMode routes a question to the historical analytic store or the
// live government data portal.
type DataMode string

const (
	ModeHistorical DataMode = "historical"
	ModeLive       DataMode = "live"
)

// AggFunc is the SQL aggregate applied to the metric column.
type AggFunc string

const (
	AggAvg AggFunc = "AVG"
	AggSum AggFunc = "SUM"
)

// Intent is the structured reading of a question. It is built once per
// request by the classifier and never mutated afterwards.
type Intent struct {
	Question    string     `json:"question"`
	Archetype   Archetype  `json:"archetype"`
	Domain      Domain     `json:"domain"`
	CrossDomain bool       `json:"cross_domain,omitempty"`
	Metrics     []string   `json:"metrics"`
	Subjects    []string   `json:"subjects"` // state names, canonical form
	Crops       []string   `json:"crops,omitempty"`
	Time        *YearRange `json:"time,omitempty"`
	DataMode    DataMode   `json:"data_mode"`
	Agg         AggFunc    `json:"agg"`
	TopN        int        `json:"top_n,omitempty"`
	Ascending   bool       `json:"ascending,omitempty"` // ranking by lowest
}

// Validate enforces the archetype/data-mode invariants. Violations are
// reported as Underspecified.
func (in *Intent) Validate() error {
	if in.Archetype == ArchetypeCurrent && in.DataMode != ModeLive {
		return Underspecified("current questions require the live data path")
	}
	switch in.Archetype {
	case ArchetypeComparison:
		if len(in.Subjects) < 2 && len(in.Metrics) < 2 && len(in.Crops) < 2 {
			return Underspecified("comparison needs at least two states, crops, or metrics")
		}
	case ArchetypeTrend:
		// A missing range means "full available history"; a single explicit
		// year cannot form a trend.
		if in.Time != nil && in.Time.Distinct() < 2 {
			return Underspecified("trend needs a range of at least two distinct years")
		}
	case ArchetypeCorrelation:
		if len(in.Metrics) < 2 {
			return Underspecified("correlation needs two metrics")
		}
	}
	return nil
}

package model

// TableRef names an analytic store table and its metric value column.
type TableRef struct {
	Name        string `json:"name"`
	ValueColumn string `json:"value_column"`
}

// Filter operators understood by the executors.
const (
	OpIn      = "in"
	OpEq      = "eq"
	OpBetween = "between" // inclusive on both bounds
)

// Filter restricts a query to matching rows.
type Filter struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Values []any  `json:"values"`
}

// Aggregate describes the single aggregate column of a plan.
type Aggregate struct {
	Column string  `json:"column"`
	Func   AggFunc `json:"func"`
	Alias  string  `json:"alias"`
}

// OrderBy orders result rows by one column.
type OrderBy struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// QueryPlan is a structured aggregate query against the analytic store.
// A plan is immutable once built and owned solely by the request that
// created it; filter values are request-specific so plans are never
// cached or shared.
type QueryPlan struct {
	Table    TableRef  `json:"table"`
	Filters  []Filter  `json:"filters,omitempty"`
	GroupBy  []string  `json:"group_by,omitempty"`
	Agg      Aggregate `json:"agg"`
	Order    *OrderBy  `json:"order,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// LivePlan is a fetch descriptor for the government data portal. No local
// aggregation is planned for live rows: portal pagination and shape are
// not guaranteed, so raw rows pass through to the synthesizer.
type LivePlan struct {
	ResourceID string            `json:"resource_id"`
	Filters    map[string]string `json:"filters,omitempty"`
	Limit      int               `json:"limit,omitempty"`
}

// Row is a single result row keyed by column name.
type Row map[string]any

// ResultSet is the ordered output of executing exactly one plan.
type ResultSet []Row

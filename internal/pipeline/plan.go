package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Luc0-0/Samarth/internal/model"
)

// Planned pairs one source with the query built against it. Exactly one
// of Query and Live is set.
type Planned struct {
	Source Source
	Query  *model.QueryPlan
	Live   *model.LivePlan
}

// defaultLiveLimit bounds a portal fetch; the portal paginates and the
// synthesizer only summarizes, so a page is enough.
const defaultLiveLimit = 50

// Planner builds query plans from a validated intent and its selected
// sources.
type Planner struct {
	titler cases.Caser
}

func NewPlanner() *Planner {
	return &Planner{titler: cases.Title(language.English)}
}

// Build emits one plan per source. Correlation's plans are later joined
// on (state, year); a multi-metric Comparison carries one plan per
// metric.
func (p *Planner) Build(in *model.Intent, sources []Source) ([]Planned, error) {
	if in.DataMode == model.ModeLive {
		return p.buildLive(in, sources)
	}

	switch in.Archetype {
	case model.ArchetypeCorrelation:
		var out []Planned
		for _, src := range sources {
			out = append(out, Planned{
				Source: src,
				Query:  p.analyticPlan(in, src, []string{"state", "year"}, nil, 0),
			})
		}
		return out, nil

	case model.ArchetypeComparison:
		// A metric comparison selects one source per metric; every one
		// gets its own plan so no metric is silently dropped.
		var out []Planned
		for _, src := range sources {
			out = append(out, Planned{
				Source: src,
				Query:  p.analyticPlan(in, src, []string{"state"}, nil, 0),
			})
		}
		return out, nil

	case model.ArchetypeTrend:
		src := sources[0]
		return []Planned{{
			Source: src,
			Query:  p.analyticPlan(in, src, []string{"year"}, &model.OrderBy{Column: "year"}, 0),
		}}, nil

	case model.ArchetypeRanking:
		src := sources[0]
		order := &model.OrderBy{Column: aggAlias(in, src), Desc: !in.Ascending}
		return []Planned{{
			Source: src,
			Query:  p.analyticPlan(in, src, []string{"state"}, order, in.TopN),
		}}, nil

	case model.ArchetypeAggregation:
		src := sources[0]
		return []Planned{{
			Source: src,
			Query:  p.analyticPlan(in, src, nil, nil, 0),
		}}, nil
	}
	return nil, model.Underspecified(fmt.Sprintf("no plan shape for archetype %q", in.Archetype))
}

// analyticPlan assembles the shared filter set plus the archetype's
// grouping and ordering. Averages run over non-null values only; the
// executor adds the null guard.
func (p *Planner) analyticPlan(in *model.Intent, src Source, groupBy []string, order *model.OrderBy, limit int) *model.QueryPlan {
	plan := &model.QueryPlan{
		Table:   src.Dataset.Table,
		GroupBy: groupBy,
		Agg: model.Aggregate{
			Column: src.Dataset.Table.ValueColumn,
			Func:   in.Agg,
			Alias:  aggAlias(in, src),
		},
		Order: order,
		Limit: limit,
	}

	// Ranking and aggregation over "all states" leave subjects empty on
	// purpose: no state filter means the whole country.
	groupsByState := contains(groupBy, "state")
	if len(in.Subjects) > 0 && (groupsByState || in.Archetype == model.ArchetypeTrend ||
		in.Archetype == model.ArchetypeAggregation || in.Archetype == model.ArchetypeCurrent) {
		plan.Filters = append(plan.Filters, model.Filter{
			Column: "state", Op: model.OpIn, Values: anySlice(in.Subjects),
		})
	}
	if len(in.Crops) > 0 && src.Dataset.Table.Name == "agri_production" {
		plan.Filters = append(plan.Filters, model.Filter{
			Column: "crop", Op: model.OpIn, Values: anySlice(in.Crops),
		})
	}
	if in.Time != nil {
		plan.Filters = append(plan.Filters, model.Filter{
			Column: "year", Op: model.OpBetween,
			Values: []any{in.Time.Start, in.Time.End},
		})
	}
	return plan
}

// buildLive emits portal fetch descriptors. No local aggregation is
// planned: portal pagination and row shape are not guaranteed, so raw
// rows pass through to the synthesizer.
func (p *Planner) buildLive(in *model.Intent, sources []Source) ([]Planned, error) {
	var out []Planned
	for _, src := range sources {
		if !src.Dataset.Live() {
			return nil, model.NoMapping(fmt.Sprintf("metric %q resolved to a non-live source on the live path", src.Metric))
		}
		filters := map[string]string{}
		if len(in.Subjects) > 0 {
			// Portal rows carry title-cased state names.
			filters["state"] = p.titler.String(in.Subjects[0])
		}
		if len(in.Crops) > 0 {
			filters["commodity"] = p.titler.String(in.Crops[0])
		}
		out = append(out, Planned{
			Source: src,
			Live:   &model.LivePlan{ResourceID: src.Dataset.ResourceID, Filters: filters, Limit: defaultLiveLimit},
		})
	}
	return out, nil
}

// FallbackPlan builds the historical substitute used when a live fetch
// fails: average production per state for the same subjects.
func (p *Planner) FallbackPlan(in *model.Intent, src Source) Planned {
	plan := &model.QueryPlan{
		Table:   src.Dataset.Table,
		GroupBy: []string{"state"},
		Agg: model.Aggregate{
			Column: src.Dataset.Table.ValueColumn,
			Func:   model.AggAvg,
			Alias:  "avg_production",
		},
	}
	if len(in.Subjects) > 0 {
		plan.Filters = append(plan.Filters, model.Filter{
			Column: "state", Op: model.OpIn, Values: anySlice(in.Subjects),
		})
	}
	if len(in.Crops) > 0 {
		plan.Filters = append(plan.Filters, model.Filter{
			Column: "crop", Op: model.OpIn, Values: anySlice(in.Crops),
		})
	}
	return Planned{Source: src, Query: plan}
}

// aggAlias names the aggregate column, e.g. avg_production.
func aggAlias(in *model.Intent, src Source) string {
	return strings.ToLower(string(in.Agg)) + "_" + src.Metric
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

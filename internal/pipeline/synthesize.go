package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Luc0-0/Samarth/internal/model"
)

// Executed is one plan's outcome at the executor boundary: the rows it
// produced and the query text recorded for provenance.
type Executed struct {
	Planned   Planned
	Rows      model.ResultSet
	QueryText string
}

const noDataMessage = "No data found for the given filters."

// maxRankingEntries caps the enumerated list in a ranking answer; rows
// past the cap collapse into an "and N more" tail.
const maxRankingEntries = 10

const liveFallbackNote = "Live market data is currently unavailable; showing historical production figures instead."

// metricUnits names the unit each metric is reported in.
var metricUnits = map[string]string{
	"production": "tonnes",
	"area":       "hectares",
	"rainfall":   "mm",
}

// Synthesizer turns executed results into prose. Templates are
// archetype-specific; numbers are formatted to two decimal places. An
// empty result set always yields the explicit no-data message, never a
// fabricated zero.
type Synthesizer struct {
	titler cases.Caser
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{titler: cases.Title(language.English)}
}

// Synthesize renders the answer text and the structured rows the
// consumer receives. For Correlation it joins the two result sets on
// (state, year) and computes the Pearson coefficient; too few joined
// pairs is a terminal InsufficientData failure.
func (s *Synthesizer) Synthesize(in *model.Intent, results []Executed, fallback bool) (string, model.ResultSet, error) {
	if in.Archetype == model.ArchetypeCorrelation {
		return s.correlation(in, results)
	}
	if in.Archetype == model.ArchetypeComparison && !fallback {
		text, rows := s.comparisonAll(in, results)
		return text, rows, nil
	}

	if len(results) == 0 || len(results[0].Rows) == 0 {
		if fallback {
			return liveFallbackNote + " " + noDataMessage, nil, nil
		}
		return noDataMessage, nil, nil
	}
	rows := results[0].Rows

	if fallback {
		text := liveFallbackNote + " " + s.comparisonText(in, results[0])
		return text, rows, nil
	}

	switch in.Archetype {
	case model.ArchetypeTrend:
		return s.trendText(in, results[0]), rows, nil
	case model.ArchetypeRanking:
		return s.rankingText(in, results[0]), rows, nil
	case model.ArchetypeAggregation:
		return s.aggregationText(in, results[0]), rows, nil
	case model.ArchetypeCurrent:
		return s.liveText(in, results[0]), rows, nil
	}
	return noDataMessage, nil, nil
}

// comparisonAll renders one comparison sentence per executed metric.
// Structured rows concatenate in plan order.
func (s *Synthesizer) comparisonAll(in *model.Intent, results []Executed) (string, model.ResultSet) {
	var texts []string
	var rows model.ResultSet
	for _, res := range results {
		if len(res.Rows) == 0 {
			continue
		}
		texts = append(texts, s.comparisonText(in, res))
		rows = append(rows, res.Rows...)
	}
	if len(texts) == 0 {
		return noDataMessage, nil
	}
	return strings.Join(texts, " "), rows
}

func (s *Synthesizer) comparisonText(in *model.Intent, res Executed) string {
	metric := res.Planned.Source.Metric
	alias := res.QueryAlias()

	parts := make([]string, 0, len(res.Rows))
	bestState, bestVal, haveBest := "", 0.0, false
	for _, row := range res.Rows {
		state, _ := row["state"].(string)
		v, ok := numeric(row[alias])
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s averaged %.2f %s", s.titler.String(state), v, unit(metric)))
		if !haveBest || v > bestVal {
			bestState, bestVal, haveBest = state, v, true
		}
	}
	if len(parts) == 0 {
		return noDataMessage
	}
	text := fmt.Sprintf("Comparing %s%s: %s.", s.describeMetric(in, metric), s.describeScope(in), strings.Join(parts, ", "))
	if len(parts) > 1 {
		text += fmt.Sprintf(" %s recorded the higher figure.", s.titler.String(bestState))
	}
	return text
}

func (s *Synthesizer) trendText(in *model.Intent, res Executed) string {
	metric := res.Planned.Source.Metric
	alias := res.QueryAlias()

	first, last := res.Rows[0], res.Rows[len(res.Rows)-1]
	firstYear, _ := numeric(first["year"])
	lastYear, _ := numeric(last["year"])
	firstVal, okA := numeric(first[alias])
	lastVal, okB := numeric(last[alias])
	if !okA || !okB {
		return noDataMessage
	}

	verb := "rose"
	if lastVal < firstVal {
		verb = "fell"
	} else if lastVal == firstVal {
		verb = "stayed flat"
	}
	text := fmt.Sprintf("Between %d and %d, %s%s %s from %.2f to %.2f %s",
		int(firstYear), int(lastYear), s.describeMetric(in, metric), s.describeScope(in),
		verb, firstVal, lastVal, unit(metric))
	if firstVal != 0 {
		text += fmt.Sprintf(" (%.2f%% change)", (lastVal-firstVal)/firstVal*100)
	}
	text += "."

	peakYear, peakVal := int(firstYear), firstVal
	troughYear, troughVal := int(firstYear), firstVal
	for _, row := range res.Rows {
		v, ok := numeric(row[alias])
		y, okY := numeric(row["year"])
		if !ok || !okY {
			continue
		}
		if v > peakVal {
			peakVal, peakYear = v, int(y)
		}
		if v < troughVal {
			troughVal, troughYear = v, int(y)
		}
	}
	if peakYear != troughYear {
		text += fmt.Sprintf(" The peak was %.2f %s in %d and the low was %.2f %s in %d.",
			peakVal, unit(metric), peakYear, troughVal, unit(metric), troughYear)
	}
	return text
}

func (s *Synthesizer) rankingText(in *model.Intent, res Executed) string {
	metric := res.Planned.Source.Metric
	alias := res.QueryAlias()

	direction := "Top"
	if in.Ascending {
		direction = "Lowest"
	}
	parts := make([]string, 0, len(res.Rows))
	for i, row := range res.Rows {
		state, _ := row["state"].(string)
		v, ok := numeric(row[alias])
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d. %s (%.2f %s)", i+1, s.titler.String(state), v, unit(metric)))
	}
	if len(parts) == 0 {
		return noDataMessage
	}
	shown, extra := parts, 0
	if len(shown) > maxRankingEntries {
		extra = len(shown) - maxRankingEntries
		shown = shown[:maxRankingEntries]
	}
	text := fmt.Sprintf("%s %d states by %s%s: %s",
		direction, len(parts), s.describeMetric(in, metric), s.describeScope(in), strings.Join(shown, ", "))
	if extra > 0 {
		text += fmt.Sprintf(", and %d more", extra)
	}
	return text + "."
}

func (s *Synthesizer) aggregationText(in *model.Intent, res Executed) string {
	metric := res.Planned.Source.Metric
	v, ok := numeric(res.Rows[0][res.QueryAlias()])
	if !ok {
		return noDataMessage
	}
	name := "average"
	if in.Agg == model.AggSum {
		name = "total"
	}
	return fmt.Sprintf("The %s %s%s is %.2f %s.", name, s.describeMetric(in, metric), s.describeScope(in), v, unit(metric))
}

// liveText summarizes raw portal rows. Row shape is best-effort: the
// portal's price resource carries commodity, market and modal_price
// columns, but none of them is guaranteed.
func (s *Synthesizer) liveText(in *model.Intent, res Executed) string {
	var parts []string
	for _, row := range res.Rows {
		commodity, _ := row["commodity"].(string)
		price, ok := numeric(row["modal_price"])
		if commodity == "" || !ok {
			continue
		}
		market, _ := row["market"].(string)
		where := ""
		if market != "" {
			where = " at " + market
		}
		parts = append(parts, fmt.Sprintf("%s%s: %.2f per quintal", commodity, where, price))
		if len(parts) == 5 {
			break
		}
	}
	scope := s.describeScope(in)
	if len(parts) == 0 {
		return fmt.Sprintf("The live portal returned %d records%s.", len(res.Rows), scope)
	}
	return fmt.Sprintf("Latest market prices%s (%d records): %s.", scope, len(res.Rows), strings.Join(parts, ", "))
}

func (s *Synthesizer) correlation(in *model.Intent, results []Executed) (string, model.ResultSet, error) {
	if len(results) < 2 {
		return "", nil, model.InsufficientData("correlation requires two executed plans")
	}
	a, b := results[0], results[1]
	pairs := JoinOnStateYear(a.Rows, b.Rows, a.QueryAlias(), b.QueryAlias())

	r, err := Pearson(pairs)
	if err != nil {
		return "", nil, err
	}

	metricA := a.Planned.Source.Metric
	metricB := b.Planned.Source.Metric
	structured := make(model.ResultSet, 0, len(pairs))
	for _, p := range pairs {
		structured = append(structured, model.Row{
			"state": p.State,
			"year":  p.Year,
			metricA: p.X,
			metricB: p.Y,
		})
	}

	text := fmt.Sprintf("Across %d state-year pairs, %s and %s show a %s %s correlation (r = %.2f).",
		len(pairs), metricA, metricB, StrengthBand(r), Direction(r), r)
	return text, structured, nil
}

// describeMetric renders "rice production" when a crop narrows the
// metric, plain "rainfall" otherwise.
func (s *Synthesizer) describeMetric(in *model.Intent, metric string) string {
	if len(in.Crops) > 0 && (metric == "production" || metric == "area") {
		return in.Crops[0] + " " + metric
	}
	return metric
}

func (s *Synthesizer) describeScope(in *model.Intent) string {
	if len(in.Subjects) == 1 {
		return " in " + s.titler.String(in.Subjects[0])
	}
	return ""
}

// QueryAlias returns the aggregate alias of the executed plan, or the
// empty string for live fetches.
func (e Executed) QueryAlias() string {
	if e.Planned.Query == nil {
		return ""
	}
	return e.Planned.Query.Agg.Alias
}

func unit(metric string) string {
	if u, ok := metricUnits[metric]; ok {
		return u
	}
	return "units"
}

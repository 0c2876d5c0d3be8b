package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Luc0-0/Samarth/internal/model"
	"github.com/Luc0-0/Samarth/internal/vocab"
)

// archetypePriority is the tie-break order when keywords from several
// archetypes fire at once: the most specific reading wins.
var archetypePriority = []model.Archetype{
	model.ArchetypeCorrelation,
	model.ArchetypeComparison,
	model.ArchetypeTrend,
	model.ArchetypeRanking,
	model.ArchetypeAggregation,
}

var (
	topNRe  = regexp.MustCompile(`\btop\s+(\d{1,3})\b`)
	lastNRe = regexp.MustCompile(`\blast\s+(\d{1,3})\s+years?\b`)

	// "between 2010 and 2015" is range phrasing, not a comparison cue.
	betweenYearsRe = regexp.MustCompile(`\bbetween\s+\d{4}\s*(?:and|to|-)\s*\d{4}\b`)
)

const defaultRankingLimit = 5

// Classifier turns an entity set plus raw text into exactly one Intent.
type Classifier struct {
	vocab   *vocab.Vocabulary
	nowFunc func() time.Time
}

func NewClassifier(v *vocab.Vocabulary) *Classifier {
	return &Classifier{vocab: v, nowFunc: time.Now}
}

// Classify builds and validates the intent. It fails with
// Underspecified when an archetype's minimum entity requirement is not
// met, and with Ambiguous when opposed ranking cues fire with equal
// strength.
func (c *Classifier) Classify(question string, entities []model.Entity) (*model.Intent, error) {
	norm := Normalize(question)
	keywords := map[string]bool{}
	in := &model.Intent{Question: question, Agg: model.AggAvg}

	for _, ent := range entities {
		switch ent.Kind {
		case model.EntityState:
			in.Subjects = append(in.Subjects, ent.Value)
		case model.EntityCrop:
			in.Crops = append(in.Crops, ent.Value)
		case model.EntityMetric:
			in.Metrics = append(in.Metrics, ent.Value)
		case model.EntityKeyword:
			if ent.Value == "between" && betweenYearsRe.MatchString(norm) {
				continue
			}
			keywords[ent.Value] = true
		}
	}
	in.Time = resolveTime(entities)
	if in.Time == nil {
		if m := lastNRe.FindStringSubmatch(norm); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				end := c.nowFunc().UTC().Year()
				in.Time = &model.YearRange{Start: end - n + 1, End: end}
			}
		}
	}

	// Explicit time evidence outranks live-trigger words: "current rice
	// price in 2012" routes historical.
	live := false
	if in.Time == nil {
		for _, trig := range c.vocab.LiveTriggers {
			if keywords[trig] {
				live = true
				break
			}
		}
	}

	// A live cue with no explicit year wins over archetype keywords:
	// "compare current prices" is a live market question, not a
	// historical comparison.
	if live {
		in.Archetype = model.ArchetypeCurrent
	} else {
		in.Archetype = c.pickArchetype(keywords)
	}
	if in.Archetype == model.ArchetypeCurrent {
		in.DataMode = model.ModeLive
	} else {
		in.DataMode = model.ModeHistorical
	}

	if err := c.resolveDomain(in); err != nil {
		return nil, err
	}

	// Market statistics exist only on the live portal; without an
	// explicit year the question cannot route historical.
	if in.Domain == model.DomainMarket && in.Time == nil && in.DataMode == model.ModeHistorical {
		in.Archetype = model.ArchetypeCurrent
		in.DataMode = model.ModeLive
	}

	for _, cue := range c.vocab.SumCues {
		if keywords[cue] {
			in.Agg = model.AggSum
			break
		}
	}

	if in.Archetype == model.ArchetypeRanking {
		if err := c.resolveRanking(in, norm, keywords); err != nil {
			return nil, err
		}
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// pickArchetype resolves the question shape from keyword presence,
// falling back to Aggregation when no archetype cue fires.
func (c *Classifier) pickArchetype(keywords map[string]bool) model.Archetype {
	for _, arch := range archetypePriority {
		for _, kw := range c.vocab.Archetypes[arch] {
			if keywords[kw] {
				return arch
			}
		}
	}
	return model.ArchetypeAggregation
}

// resolveDomain infers the domain from matched metric vocabulary.
// Metrics spanning two domains set the cross-domain flag instead of
// failing; that is the correlation case.
func (c *Classifier) resolveDomain(in *model.Intent) error {
	if len(in.Metrics) == 0 {
		if in.DataMode == model.ModeLive {
			// A live question with no metric is a market-price question.
			in.Metrics = []string{"price"}
			in.Domain = model.DomainMarket
			return nil
		}
		return model.Underspecified("no recognized metric in question")
	}

	domains := map[model.Domain]bool{}
	for _, m := range in.Metrics {
		d, ok := c.vocab.MetricDomain(m)
		if !ok {
			return model.NoMapping(fmt.Sprintf("metric %q has no domain", m))
		}
		domains[d] = true
	}
	first, _ := c.vocab.MetricDomain(in.Metrics[0])
	in.Domain = first
	in.CrossDomain = len(domains) > 1
	return nil
}

func (c *Classifier) resolveRanking(in *model.Intent, norm string, keywords map[string]bool) error {
	low := countPresent(keywords, c.vocab.RankingLow)
	high := countPresent(keywords, c.vocab.RankingHigh)
	if low > 0 && low == high {
		return model.Ambiguous("question asks for both highest and lowest")
	}
	in.Ascending = low > high

	in.TopN = defaultRankingLimit
	if m := topNRe.FindStringSubmatch(norm); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			in.TopN = n
		}
	}
	return nil
}

func countPresent(keywords map[string]bool, cues []string) int {
	n := 0
	for _, cue := range cues {
		if keywords[cue] {
			n++
		}
	}
	return n
}

// resolveTime folds year entities into a single inclusive range. An
// explicit range wins; otherwise the min and max of the year points
// bound the range.
func resolveTime(entities []model.Entity) *model.YearRange {
	var points []int
	for _, ent := range entities {
		switch ent.Kind {
		case model.EntityYearRange:
			var r model.YearRange
			if _, err := fmt.Sscanf(ent.Value, "%d-%d", &r.Start, &r.End); err == nil {
				return &r
			}
			if y, err := strconv.Atoi(ent.Value); err == nil {
				return &model.YearRange{Start: y, End: y}
			}
		case model.EntityYearPoint:
			if y, err := strconv.Atoi(ent.Value); err == nil {
				points = append(points, y)
			}
		}
	}
	if len(points) == 0 {
		return nil
	}
	r := &model.YearRange{Start: points[0], End: points[0]}
	for _, y := range points[1:] {
		if y < r.Start {
			r.Start = y
		}
		if y > r.End {
			r.End = y
		}
	}
	return r
}

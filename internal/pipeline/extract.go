// Package pipeline implements the question-answering pipeline: entity
// extraction, intent classification, source selection, query planning,
// execution, and answer synthesis. Every stage is stateless and scoped
// to a single request.
package pipeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Luc0-0/Samarth/internal/model"
	"github.com/Luc0-0/Samarth/internal/vocab"
)

var (
	yearRangeRe = regexp.MustCompile(`\b(\d{4})\s*(?:-|to)\s*(\d{4})\b`)
	yearRe      = regexp.MustCompile(`\b(\d{4})\b`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// Extractor recognizes closed-vocabulary entities inside question text.
// All term patterns are compiled once at construction; extraction itself
// allocates only the result slice.
type Extractor struct {
	vocab    *vocab.Vocabulary
	states   []term
	crops    []term
	metrics  []term
	keywords []term
	aliasRe  *regexp.Regexp
}

// term is one precompiled vocabulary pattern and the canonical value it
// resolves to.
type term struct {
	re    *regexp.Regexp
	value string
}

// NewExtractor builds an Extractor over the given vocabulary.
func NewExtractor(v *vocab.Vocabulary) *Extractor {
	e := &Extractor{vocab: v}

	for _, s := range v.States {
		e.states = append(e.states, compileTerm(s, s))
	}
	for _, c := range v.Crops {
		e.crops = append(e.crops, compileTerm(c, c))
	}
	for alias, canonical := range v.CropAliases {
		e.crops = append(e.crops, compileTerm(alias, canonical))
	}
	for name, m := range v.Metrics {
		for _, kw := range m.Keywords {
			e.metrics = append(e.metrics, compileTerm(kw, name))
		}
	}
	seen := map[string]bool{}
	addKeyword := func(kw string) {
		if !seen[kw] {
			seen[kw] = true
			e.keywords = append(e.keywords, compileTerm(kw, kw))
		}
	}
	for _, kws := range v.Archetypes {
		for _, kw := range kws {
			addKeyword(kw)
		}
	}
	for _, kw := range v.LiveTriggers {
		addKeyword(kw)
	}
	for _, kw := range v.SumCues {
		addKeyword(kw)
	}

	// State abbreviations only match as standalone uppercase tokens so
	// ordinary words like "up" never resolve to Uttar Pradesh.
	if len(v.StateAliases) > 0 {
		aliases := make([]string, 0, len(v.StateAliases))
		for a := range v.StateAliases {
			aliases = append(aliases, strings.ToUpper(a))
		}
		sort.Strings(aliases)
		e.aliasRe = regexp.MustCompile(`\b(` + strings.Join(aliases, "|") + `)\b`)
	}
	return e
}

func compileTerm(pattern, value string) term {
	return term{
		re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(pattern)) + `\b`),
		value: value,
	}
}

// Normalize lowercases and whitespace-collapses question text. Entity
// spans are byte offsets into the normalized form.
func Normalize(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.ToLower(text), " "))
}

// Extract returns every recognized entity in the question. An empty
// result is valid, not an error: unrecognized questions fail later, in
// classification, with a structured reason.
func (e *Extractor) Extract(text string) []model.Entity {
	norm := Normalize(text)
	var out []model.Entity

	// Ranges first; single years inside a matched range are not
	// re-reported as year points.
	var covered [][2]int
	for _, m := range yearRangeRe.FindAllStringSubmatchIndex(norm, -1) {
		start, _ := strconv.Atoi(norm[m[2]:m[3]])
		end, _ := strconv.Atoi(norm[m[4]:m[5]])
		if !plausibleYear(start) || !plausibleYear(end) || end < start {
			continue
		}
		covered = append(covered, [2]int{m[0], m[1]})
		out = append(out, model.Entity{
			Kind:  model.EntityYearRange,
			Value: model.YearRange{Start: start, End: end}.String(),
			Span:  [2]int{m[0], m[1]},
		})
	}
	for _, m := range yearRe.FindAllStringSubmatchIndex(norm, -1) {
		if insideAny(m[0], covered) {
			continue
		}
		y, _ := strconv.Atoi(norm[m[0]:m[1]])
		if !plausibleYear(y) {
			continue
		}
		out = append(out, model.Entity{
			Kind:  model.EntityYearPoint,
			Value: strconv.Itoa(y),
			Span:  [2]int{m[0], m[1]},
		})
	}

	out = append(out, matchTerms(norm, e.states, model.EntityState)...)
	if e.aliasRe != nil {
		raw := spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
		for _, m := range e.aliasRe.FindAllStringIndex(raw, -1) {
			alias := strings.ToLower(raw[m[0]:m[1]])
			out = append(out, model.Entity{
				Kind:  model.EntityState,
				Value: e.vocab.StateAliases[alias],
				Span:  [2]int{m[0], m[1]},
			})
		}
	}
	out = append(out, matchTerms(norm, e.crops, model.EntityCrop)...)
	out = append(out, matchTerms(norm, e.metrics, model.EntityMetric)...)
	out = append(out, matchTerms(norm, e.keywords, model.EntityKeyword)...)

	return dedupe(out)
}

// matchTerms reports entities in question order. Term lists are built
// from maps in part, so span order is what keeps the output stable
// across processes.
func matchTerms(norm string, terms []term, kind model.EntityKind) []model.Entity {
	var out []model.Entity
	for _, t := range terms {
		if loc := t.re.FindStringIndex(norm); loc != nil {
			out = append(out, model.Entity{Kind: kind, Value: t.value, Span: [2]int{loc[0], loc[1]}})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span[0] != out[j].Span[0] {
			return out[i].Span[0] < out[j].Span[0]
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func insideAny(pos int, spans [][2]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

func plausibleYear(y int) bool {
	return y >= 1900 && y <= 2100
}

// dedupe drops repeated (kind, value) pairs, keeping first occurrence
// order stable.
func dedupe(entities []model.Entity) []model.Entity {
	seen := make(map[string]bool, len(entities))
	out := entities[:0]
	for _, ent := range entities {
		key := string(ent.Kind) + "\x00" + ent.Value
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ent)
	}
	return out
}

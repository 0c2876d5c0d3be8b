package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Luc0-0/Samarth/internal/audit"
	"github.com/Luc0-0/Samarth/internal/model"
	"github.com/Luc0-0/Samarth/internal/store"
	"github.com/Luc0-0/Samarth/pkg/datagov"
)

// Pipeline answers one question per call. It holds only shared,
// read-mostly collaborators; every request is independent and safe to
// run concurrently.
type Pipeline struct {
	extractor  *Extractor
	classifier *Classifier
	catalog    *Catalog
	planner    *Planner
	synth      *Synthesizer
	exec       store.Executor
	live       datagov.Client
	audit      audit.Sink
	nowFunc    func() time.Time
}

// New wires the pipeline stages around the executor boundary.
func New(ex *Extractor, cl *Classifier, cat *Catalog, exec store.Executor, live datagov.Client, sink audit.Sink) *Pipeline {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Pipeline{
		extractor:  ex,
		classifier: cl,
		catalog:    cat,
		planner:    NewPlanner(),
		synth:      NewSynthesizer(),
		exec:       exec,
		live:       live,
		audit:      sink,
		nowFunc:    time.Now,
	}
}

// Answer runs the full pipeline. It never returns an error: terminal
// failures fill the answer shape with an error kind, an explanatory
// text, and empty results and citations.
func (p *Pipeline) Answer(ctx context.Context, question string) *model.Answer {
	requestID := uuid.NewString()
	log := zap.L().With(zap.String("request_id", requestID))
	log.Info("pipeline: answering question", zap.String("question", question))

	entities := p.extractor.Extract(question)

	intent, err := p.classifier.Classify(question, entities)
	if err != nil {
		return p.errorAnswer(requestID, err, log)
	}
	log.Debug("pipeline: intent classified",
		zap.String("archetype", string(intent.Archetype)),
		zap.String("data_mode", string(intent.DataMode)),
		zap.Strings("subjects", intent.Subjects),
		zap.Strings("metrics", intent.Metrics),
	)

	sources, err := p.catalog.Select(intent)
	if err != nil {
		return p.errorAnswer(requestID, err, log)
	}

	plans, err := p.planner.Build(intent, sources)
	if err != nil {
		return p.errorAnswer(requestID, err, log)
	}

	results, fallbackCitations, fallback, err := p.execute(ctx, intent, plans, log)
	if err != nil {
		return p.errorAnswer(requestID, err, log)
	}

	text, structured, err := p.synth.Synthesize(intent, results, fallback)
	if err != nil {
		return p.errorAnswer(requestID, err, log)
	}

	citations := append(fallbackCitations, buildCitations(results)...)
	prov := buildProvenance(requestID, results, citations, p.nowFunc().UTC())
	if auditErr := p.audit.Record(prov); auditErr != nil {
		log.Warn("pipeline: audit record failed", zap.Error(auditErr))
	}

	return &model.Answer{
		RequestID:         requestID,
		AnswerText:        text,
		StructuredResults: structured1(structured, results),
		Citations:         citations,
		Provenance:        prov,
		LiveFallback:      fallback,
	}
}

// structured1 prefers the synthesizer's rows (correlation joins) and
// falls back to the first executed plan's rows.
func structured1(synthRows model.ResultSet, results []Executed) model.ResultSet {
	if synthRows != nil {
		return synthRows
	}
	if len(results) > 0 {
		return results[0].Rows
	}
	return model.ResultSet{}
}

// execute runs every plan. Correlation's two analytic plans run in
// parallel; a live-fetch failure switches to the historical fallback
// instead of terminating.
func (p *Pipeline) execute(ctx context.Context, in *model.Intent, plans []Planned, log *zap.Logger) ([]Executed, []model.Citation, bool, error) {
	if in.DataMode == model.ModeLive {
		return p.executeLive(ctx, in, plans, log)
	}

	results := make([]Executed, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, planned := range plans {
		g.Go(func() error {
			res, err := p.exec.Execute(gctx, planned.Query)
			if err != nil {
				return err
			}
			results[i] = Executed{Planned: planned, Rows: res.Rows, QueryText: res.Query}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, false, err
	}
	return results, nil, false, nil
}

// executeLive attempts the portal fetch and falls back to historical
// production data for the same entities when it fails.
func (p *Pipeline) executeLive(ctx context.Context, in *model.Intent, plans []Planned, log *zap.Logger) ([]Executed, []model.Citation, bool, error) {
	planned := plans[0]

	records, fetchErr := p.live.Fetch(ctx, planned.Live.ResourceID, planned.Live.Filters, planned.Live.Limit)
	if fetchErr == nil {
		rows := make(model.ResultSet, len(records))
		for i, rec := range records {
			rows[i] = model.Row(rec)
		}
		exec := Executed{
			Planned:   planned,
			Rows:      rows,
			QueryText: fmt.Sprintf("live fetch resource=%s filters=%v", planned.Live.ResourceID, planned.Live.Filters),
		}
		return []Executed{exec}, nil, false, nil
	}

	log.Warn("pipeline: live fetch failed, falling back to historical", zap.Error(fetchErr))

	fb := p.planner.FallbackPlan(in, p.catalog.HistoricalFallback())
	res, err := p.exec.Execute(ctx, fb.Query)
	if err != nil {
		// Both paths down: surface the live failure, not the store error.
		return nil, nil, false, model.LiveUnavailable("live fetch and historical fallback both failed", fetchErr)
	}
	failed := failedCitation(planned.Source, fetchErr.Error())
	return []Executed{{Planned: fb, Rows: res.Rows, QueryText: res.Query}}, []model.Citation{failed}, true, nil
}

// userFacingText maps the failure taxonomy to the answer text shown to
// the consumer. Raw errors stay in logs.
func userFacingText(kind model.ErrorKind) string {
	switch kind {
	case model.ErrAmbiguous:
		return "The question asks for opposite things at once. Please ask for either the highest or the lowest."
	case model.ErrUnderspecified:
		return "Could not understand enough of the question. Try naming a state, a metric such as production or rainfall, and optionally a year range."
	case model.ErrNoMapping:
		return "No known dataset can answer this question."
	case model.ErrInsufficientData:
		return "Not enough overlapping data points to compute a reliable statistic."
	case model.ErrExecutionFailed:
		return "The query against the historical store failed. No data is shown rather than a fabricated result."
	case model.ErrLiveUnavailable:
		return "Live data is currently unavailable and no historical substitute could be found."
	}
	return "The question could not be answered."
}

func (p *Pipeline) errorAnswer(requestID string, err error, log *zap.Logger) *model.Answer {
	kind := KindOfOrExecution(err)
	log.Warn("pipeline: request failed", zap.String("kind", string(kind)), zap.Error(err))

	prov := &model.ProvenanceRecord{
		RequestID: requestID,
		Timestamp: p.nowFunc().UTC(),
	}
	if auditErr := p.audit.Record(prov); auditErr != nil {
		log.Warn("pipeline: audit record failed", zap.Error(auditErr))
	}
	return &model.Answer{
		RequestID:         requestID,
		AnswerText:        userFacingText(kind),
		StructuredResults: model.ResultSet{},
		Citations:         []model.Citation{},
		Provenance:        prov,
		ErrorKind:         kind,
	}
}

// KindOfOrExecution classifies an error, treating anything outside the
// taxonomy as an execution failure.
func KindOfOrExecution(err error) model.ErrorKind {
	if kind := model.KindOf(err); kind != "" {
		return kind
	}
	return model.ErrExecutionFailed
}

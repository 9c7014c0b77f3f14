// Package workflow sequences the document-processing stages of a BOM
// comparison run: translate, extract/classify, ingest supplier data, match,
// finalize.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/match"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/notify"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/store"
)

// Stage progress boundaries. Each stage notifies at its start percentage and
// again at its end percentage.
const (
	progressTranslateStart = 5
	progressTranslateEnd   = 30
	progressExtractEnd     = 55
	progressSupplierEnd    = 75
	progressCompareEnd     = 95
	progressFinalizeEnd    = 100
)

// Options tunes pipeline behavior.
type Options struct {
	BaseThreshold      float64
	SourceLanguage     string
	TargetLanguage     string
	FocusCategories    []string
	MaxParallelMatches int
}

// DefaultFocusCategories lists the material categories the extraction
// collaborator is asked to concentrate on.
var DefaultFocusCategories = []string{
	"fasteners", "adhesives", "seals", "gaskets", "electrical",
	"connectors", "hardware", "consumables", "jigs", "tools",
}

func (o *Options) applyDefaults() {
	if o.BaseThreshold == 0 {
		o.BaseThreshold = 0.6
	}
	if o.SourceLanguage == "" {
		o.SourceLanguage = "ja"
	}
	if o.TargetLanguage == "" {
		o.TargetLanguage = "en"
	}
	if len(o.FocusCategories) == 0 {
		o.FocusCategories = DefaultFocusCategories
	}
	if o.MaxParallelMatches <= 0 {
		o.MaxParallelMatches = 4
	}
}

// matcher is the subset of match.Engine the compare stage uses.
type matcher interface {
	Match(material model.ExtractedMaterial, catalog []model.SupplierItem, baseThreshold float64) model.BOMMatch
}

// Pipeline orchestrates one workflow run end to end. Stages run strictly
// sequentially; independent runs may execute concurrently because the only
// shared state is the store.
type Pipeline struct {
	opts       Options
	store      store.Store
	translator Translator
	extractor  Extractor
	ingester   SupplierIngester
	engine     matcher
	publisher  Publisher

	mu    sync.Mutex
	stats pipelineStats
}

type pipelineStats struct {
	RunsStarted    int `json:"runs_started"`
	RunsCompleted  int `json:"runs_completed"`
	RunsFailed     int `json:"runs_failed"`
	EngineFailures int `json:"engine_failures"`
}

// New creates a Pipeline with all dependencies.
func New(opts Options, st store.Store, translator Translator, extractor Extractor, ingester SupplierIngester, publisher Publisher) *Pipeline {
	opts.applyDefaults()
	return &Pipeline{
		opts:       opts,
		store:      st,
		translator: translator,
		extractor:  extractor,
		ingester:   ingester,
		engine:     match.New(),
		publisher:  publisher,
	}
}

// Run executes the five stages for an already-registered run. On stage
// failure the run is marked errored, a final 0% error event is published,
// and the StageError propagates to the caller. No stage is retried.
func (p *Pipeline) Run(ctx context.Context, run *model.WorkflowRun) (*model.BOMComparisonResult, error) {
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("workflow: starting run",
		zap.String("qa_doc", run.QADocRef),
		zap.String("supplier", run.SupplierRef),
	)

	p.mu.Lock()
	p.stats.RunsStarted++
	p.mu.Unlock()

	result, err := p.execute(ctx, run, log)
	if err != nil {
		stage, _ := FailedStage(err)
		p.fail(ctx, run.ID, stage, err, log)
		return nil, err
	}

	p.mu.Lock()
	p.stats.RunsCompleted++
	p.mu.Unlock()

	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, run *model.WorkflowRun, log *zap.Logger) (*model.BOMComparisonResult, error) {
	// ===== Stage 1: Translation (5% - 30%) =====
	p.progress(ctx, run.ID, model.StageTranslate, progressTranslateStart, "translating QA document")

	translation, err := p.translator.Process(ctx, run.QADocRef, p.opts.SourceLanguage, p.opts.TargetLanguage)
	if err != nil {
		return nil, &StageError{Stage: model.StageTranslate, Err: err}
	}
	p.snapshot(ctx, run.ID, model.StageTranslate, translation, log)

	p.progress(ctx, run.ID, model.StageTranslate, progressTranslateEnd, "translation completed")

	// ===== Stage 2: Extraction and classification (30% - 55%) =====
	p.progress(ctx, run.ID, model.StageExtract, progressTranslateEnd, "extracting and classifying materials")

	extraction, err := p.extractor.Process(ctx, translation.TranslatedText, p.opts.FocusCategories)
	if err != nil {
		return nil, &StageError{Stage: model.StageExtract, Err: err}
	}
	p.snapshot(ctx, run.ID, model.StageExtract, extraction, log)

	s := extraction.Summary
	p.progress(ctx, run.ID, model.StageExtract, progressExtractEnd, fmt.Sprintf(
		"extracted %d materials: %d auto-register, %d flagged, %d need intervention",
		len(extraction.Materials), s.Green, s.Amber, s.Red,
	))

	// ===== Stage 3: Supplier ingestion (55% - 75%) =====
	p.progress(ctx, run.ID, model.StageSupplier, progressExtractEnd, "ingesting supplier catalog")

	catalog, err := p.ingester.Process(ctx, run.SupplierRef)
	if err != nil {
		return nil, &StageError{Stage: model.StageSupplier, Err: err}
	}
	p.snapshot(ctx, run.ID, model.StageSupplier, catalog, log)

	items := catalog.Flatten()
	p.progress(ctx, run.ID, model.StageSupplier, progressSupplierEnd, fmt.Sprintf("processed %d supplier items", len(items)))

	// ===== Stage 4: Comparison (75% - 95%) =====
	p.progress(ctx, run.ID, model.StageCompare, progressSupplierEnd, "matching materials against supplier catalog")

	matches, err := p.compare(ctx, extraction.Materials, items, log)
	if err != nil {
		return nil, err
	}
	p.snapshot(ctx, run.ID, model.StageCompare, map[string]any{
		"matches":              matches,
		"matches_count":        len(matches),
		"confidence_threshold": p.opts.BaseThreshold,
	}, log)

	matched := 0
	for _, m := range matches {
		if m.Matched() {
			matched++
		}
	}
	p.progress(ctx, run.ID, model.StageCompare, progressCompareEnd, fmt.Sprintf("found %d supplier matches", matched))

	// ===== Stage 5: Finalization (95% - 100%) =====
	p.progress(ctx, run.ID, model.StageFinalize, progressCompareEnd, "finalizing results")

	result := Assemble(run.ID, extraction.Materials, matches, catalog.TotalItems, map[string]any{
		"confidence_threshold": p.opts.BaseThreshold,
		"collaborator_stats": map[string]any{
			"translation":  p.translator.Stats(),
			"extraction":   p.extractor.Stats(),
			"supplier_bom": p.ingester.Stats(),
		},
	})
	p.snapshot(ctx, run.ID, model.StageFinalize, result, log)

	if err := p.store.UpdateRunResult(ctx, run.ID, result); err != nil {
		return nil, &StageError{Stage: model.StageFinalize, Err: eris.Wrap(err, "persist result")}
	}
	p.archive(ctx, run.ID, matches, log)

	p.notify(run.ID, model.RunStatusCompleted, model.StageComplete, progressFinalizeEnd, fmt.Sprintf(
		"workflow completed: %d auto-register, %d flagged, %d need intervention",
		result.Summary.Green, result.Summary.Amber, result.Summary.Red,
	))

	log.Info("workflow: run complete",
		zap.Int("materials", result.TotalQAItems),
		zap.Int("supplier_items", result.TotalSupplierItems),
		zap.Int("matched", matched),
	)
	return result, nil
}

// compare resolves every material against the catalog. Materials are
// independent, so matching is fanned out across a bounded worker group; the
// result slice is indexed by material position to keep input order.
//
// An unexpected engine failure degrades the entire stage to an empty match
// list rather than aborting the run, so the classification summary still
// reaches the caller. A single malformed material therefore erases all
// matches for the run. Context cancellation is not an engine failure: it
// aborts the run with a compare-stage error instead of degrading.
func (p *Pipeline) compare(ctx context.Context, materials []model.ExtractedMaterial, catalog []model.SupplierItem, log *zap.Logger) ([]model.BOMMatch, error) {
	matches := make([]model.BOMMatch, len(materials))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxParallelMatches)

	for i, material := range materials {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &EngineError{Err: eris.Errorf("material %q: %v", material.Name, r)}
				}
			}()
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			matches[i] = p.engine.Match(material, catalog, p.opts.BaseThreshold)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &StageError{Stage: model.StageCompare, Err: err}
		}
		p.mu.Lock()
		p.stats.EngineFailures++
		p.mu.Unlock()
		log.Error("workflow: comparison stage degraded to empty match list", zap.Error(err))
		return []model.BOMMatch{}, nil
	}

	return matches, nil
}

// MatchArchiver is implemented by stores that keep match rows in relational
// form alongside the JSON result. The SQLite store does not.
type MatchArchiver interface {
	ArchiveMatches(ctx context.Context, runID string, matches []model.BOMMatch) error
}

// archive writes the relational copy of the match rows when the store
// supports it. The JSON result on the run record stays authoritative, so a
// failure here is logged and otherwise ignored.
func (p *Pipeline) archive(ctx context.Context, runID string, matches []model.BOMMatch, log *zap.Logger) {
	archiver, ok := p.store.(MatchArchiver)
	if !ok {
		return
	}
	if err := archiver.ArchiveMatches(ctx, runID, matches); err != nil {
		log.Warn("workflow: failed to archive match rows", zap.Error(err))
	}
}

// progress persists the run's progress and fans the update out to
// observers. Neither outcome affects pipeline correctness; failures are
// logged only.
func (p *Pipeline) progress(ctx context.Context, runID string, stage model.Stage, percent float64, message string) {
	if err := p.store.UpdateRunProgress(ctx, runID, model.RunStatusProcessing, stage, percent, message); err != nil {
		zap.L().Warn("workflow: failed to update run progress",
			zap.String("run_id", runID),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
	}
	p.notify(runID, model.RunStatusProcessing, stage, percent, message)
}

func (p *Pipeline) notify(runID string, status model.RunStatus, stage model.Stage, percent float64, message string) {
	if p.publisher == nil {
		return
	}
	p.publisher.Publish(notify.Update{
		RunID:    runID,
		Status:   string(status),
		Stage:    string(stage),
		Progress: percent,
		Message:  message,
	})
}

// snapshot persists a stage's raw output for later inspection. Durability of
// these artifacts is diagnostic, not correctness-critical, so failures are
// swallowed after logging.
func (p *Pipeline) snapshot(ctx context.Context, runID string, stage model.Stage, data any, log *zap.Logger) {
	if err := p.store.SaveSnapshot(ctx, runID, stage, data); err != nil {
		log.Warn("workflow: failed to save stage snapshot",
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
	}
}

func (p *Pipeline) fail(ctx context.Context, runID string, stage model.Stage, cause error, log *zap.Logger) {
	p.mu.Lock()
	p.stats.RunsFailed++
	p.mu.Unlock()

	message := fmt.Sprintf("processing failed in %s: %v", stage, eris.Cause(cause))
	// The run's own context may already be cancelled; the error record
	// must still land.
	if err := p.store.FailRun(context.WithoutCancel(ctx), runID, stage, message); err != nil {
		log.Warn("workflow: failed to record run error", zap.Error(err))
	}
	p.notify(runID, model.RunStatusError, model.StageError, 0, message)

	log.Error("workflow: run failed",
		zap.String("stage", string(stage)),
		zap.Error(cause),
	)
}

// Stats returns a copy of the pipeline's run counters.
func (p *Pipeline) Stats() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{
		"runs_started":    p.stats.RunsStarted,
		"runs_completed":  p.stats.RunsCompleted,
		"runs_failed":     p.stats.RunsFailed,
		"engine_failures": p.stats.EngineFailures,
	}
}

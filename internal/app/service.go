// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/labeleval/internal/adapters/export"
	"github.com/okian/labeleval/internal/adapters/input"
	"github.com/okian/labeleval/internal/adapters/repository"
	"github.com/okian/labeleval/internal/domain/evaluation"
	"github.com/okian/labeleval/internal/domain/model"
	"github.com/okian/labeleval/pkg/logger"
	"github.com/okian/labeleval/pkg/metrics"
)

// Source names used when an uploaded document carries no file name.
const (
	SourceActual    = "actual"
	SourcePredicted = "predicted"
)

// Service parses uploaded label mappings, scores them and keeps recent
// reports in memory.
type Service struct {
	mu sync.RWMutex

	reports repository.Store

	// Defaults applied when a request does not override them
	scope       model.Scope
	normalize   bool
	emptyPolicy model.EmptyPolicy

	reportHistory  int
	workerCount    int
	csvDelimiter   rune
	labelSeparator string

	started     bool
	evaluations atomic.Int64

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		scope:          model.ScopeUnion,
		normalize:      true,
		emptyPolicy:    model.EmptyAsZero,
		reportHistory:  100,
		workerCount:    runtime.NumCPU(),
		csvDelimiter:   ',',
		labelSeparator: "; ",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the report store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.reports = repository.NewMemoryStore(
		repository.WithCapacity(s.reportHistory),
		repository.WithEvictHook(func(id string) {
			metrics.RecordReportEvicted()
			s.logger.Debug(context.Background(), "report evicted", logger.String("id", id))
		}),
	)

	s.started = true
	s.logger.Info(ctx, "evaluation service started",
		logger.String("scope", s.scope.String()),
		logger.Bool("normalize", s.normalize),
		logger.String("emptyPolicy", s.emptyPolicy.String()),
		logger.Int("reportHistory", s.reportHistory),
		logger.Int("workers", s.workerCount),
	)
	return nil
}

// Stop releases the report store. Stored reports are discarded.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.reports = nil
	s.started = false
	metrics.UpdateReportsStored(0)
	s.logger.Info(context.Background(), "evaluation service stopped")
}

func (s *Service) store() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.reports, nil
}

// engine resolves per-request overrides against the service defaults.
func (s *Service) engine(o model.Overrides) *evaluation.Engine {
	scope, normalize, policy := s.scope, s.normalize, s.emptyPolicy
	if o.Scope != nil {
		scope = *o.Scope
	}
	if o.Normalize != nil {
		normalize = *o.Normalize
	}
	if o.EmptyPolicy != nil {
		policy = *o.EmptyPolicy
	}
	return evaluation.New(
		evaluation.WithScope(scope),
		evaluation.WithNormalization(normalize),
		evaluation.WithEmptyPolicy(policy),
	)
}

func sourceName(doc model.Document, fallback string) string {
	if doc.Name != "" {
		return doc.Name
	}
	return fallback
}

func (s *Service) parse(doc model.Document, role string) (model.LabelMapping, error) {
	m, err := input.Parse(sourceName(doc, role), doc.Data)
	if err != nil {
		metrics.RecordParseError(role)
		return nil, err
	}
	return m, nil
}

// Evaluate parses both documents, scores them and stores the report.
// Parse failures are returned as *input.ParseError. An evaluation with no
// items succeeds with Report.Warning set to ErrEmptyEvaluation.
func (s *Service) Evaluate(ctx context.Context, req model.Request) (model.Report, error) {
	store, err := s.store()
	if err != nil {
		return model.Report{}, err
	}
	start := time.Now()
	engine := s.engine(req.Options)

	actual, err := s.parse(req.Actual, SourceActual)
	if err != nil {
		s.rejected(ctx, engine, start, err)
		return model.Report{}, err
	}
	predicted, err := s.parse(req.Predicted, SourcePredicted)
	if err != nil {
		s.rejected(ctx, engine, start, err)
		return model.Report{}, err
	}

	return s.score(ctx, store, engine, start, scoreInput{
		actual:          actual,
		predicted:       predicted,
		actualSource:    sourceName(req.Actual, SourceActual),
		predictedSource: sourceName(req.Predicted, SourcePredicted),
	})
}

type scoreInput struct {
	actual, predicted             model.LabelMapping
	actualSource, predictedSource string
}

func (s *Service) rejected(ctx context.Context, engine *evaluation.Engine, start time.Time, err error) {
	metrics.RecordEvaluation(engine.Scope().String(), metrics.OutcomeInvalidInput, sinceMs(start))
	s.logger.Warn(ctx, "rejected input document", logger.Error(err))
}

func (s *Service) score(ctx context.Context, store repository.Store, engine *evaluation.Engine, start time.Time, in scoreInput) (model.Report, error) {
	summary := engine.Evaluate(in.actual, in.predicted)

	report := model.Report{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		ActualSource:    in.actualSource,
		PredictedSource: in.predictedSource,
		Summary:         summary,
	}

	outcome := metrics.OutcomeOK
	if !summary.HasAggregates() {
		outcome = metrics.OutcomeEmpty
		report.Warning = ErrEmptyEvaluation.Error()
		s.logger.Warn(ctx, "empty evaluation",
			logger.String("id", report.ID),
			logger.String("predicted", in.predictedSource),
			logger.String("scope", summary.Scope.String()),
		)
	}
	if len(summary.MergedKeys) > 0 {
		s.logger.Warn(ctx, "keys collided after normalization and were merged",
			logger.String("id", report.ID),
			logger.Strings("keys", summary.MergedKeys),
		)
	}

	if err := store.Put(ctx, report); err != nil {
		return model.Report{}, fmt.Errorf("store report: %w", err)
	}
	s.evaluations.Add(1)

	metrics.RecordEvaluation(summary.Scope.String(), outcome, sinceMs(start))
	metrics.RecordItems(len(summary.Items), len(summary.Excluded), len(summary.MergedKeys))
	metrics.UpdateReportsStored(store.Count(ctx))
	if p, r, ok := summary.Global(); ok {
		metrics.UpdateLastScores(p, r)
	}

	s.logger.Debug(ctx, "evaluation completed",
		logger.String("id", report.ID),
		logger.Int("items", len(summary.Items)),
		logger.Int("excluded", len(summary.Excluded)),
		logger.Float64("precision", summary.GlobalPrecision),
		logger.Float64("recall", summary.GlobalRecall),
	)
	return report, nil
}

// Compare scores every run in req.Runs against req.Actual with the same
// options and returns the reports ordered by predicted source name.
//
// Every document is parsed before anything is scored, so a malformed run
// fails the whole comparison without storing reports for the others. Both
// phases run concurrently, bounded by the worker count.
func (s *Service) Compare(ctx context.Context, req model.CompareRequest) ([]model.Report, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	if len(req.Runs) == 0 {
		return nil, ErrNoRuns
	}
	start := time.Now()
	engine := s.engine(req.Options)

	actual, err := s.parse(req.Actual, SourceActual)
	if err != nil {
		s.rejected(ctx, engine, start, err)
		return nil, err
	}
	actualSource := sourceName(req.Actual, SourceActual)

	runs, err := s.parseRuns(ctx, engine, req.Runs)
	if err != nil {
		return nil, err
	}

	reports := make([]model.Report, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for i, run := range runs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.score(gctx, store, engine, time.Now(), scoreInput{
				actual:          actual,
				predicted:       run.labels,
				actualSource:    actualSource,
				predictedSource: run.source,
			})
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].PredictedSource < reports[j].PredictedSource
	})
	metrics.RecordComparison()
	s.logger.Info(ctx, "comparison completed",
		logger.Int("runs", len(reports)),
		logger.Float64("durationMs", sinceMs(start)),
	)
	return reports, nil
}

type parsedRun struct {
	source string
	labels model.LabelMapping
}

// parseRuns validates every prediction document. Unnamed runs are called
// predicted-1, predicted-2 and so on by position.
func (s *Service) parseRuns(ctx context.Context, engine *evaluation.Engine, docs []model.Document) ([]parsedRun, error) {
	runs := make([]parsedRun, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			runStart := time.Now()
			source := sourceName(doc, fmt.Sprintf("%s-%d", SourcePredicted, i+1))
			labels, err := s.parse(model.Document{Name: source, Data: doc.Data}, SourcePredicted)
			if err != nil {
				s.rejected(gctx, engine, runStart, err)
				return err
			}
			runs[i] = parsedRun{source: source, labels: labels}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Report returns a stored report by id.
func (s *Service) Report(ctx context.Context, id string) (model.Report, error) {
	store, err := s.store()
	if err != nil {
		return model.Report{}, err
	}
	r, err := store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Report{}, fmt.Errorf("%w: %q", ErrReportNotFound, id)
	}
	return r, err
}

// Recent returns up to n stored reports, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]model.Report, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.Recent(ctx, n)
}

// ExportCSV writes the per-item rows of a stored report to w.
func (s *Service) ExportCSV(ctx context.Context, id string, w io.Writer) error {
	r, err := s.Report(ctx, id)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, r.Summary, s.CSVOptions()...)
}

// CSVOptions returns the configured CSV format.
func (s *Service) CSVOptions() []export.Option {
	return []export.Option{
		export.WithDelimiter(s.csvDelimiter),
		export.WithLabelSeparator(s.labelSeparator),
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"scope":         s.scope.String(),
		"normalize":     s.normalize,
		"emptyPolicy":   s.emptyPolicy.String(),
		"reportHistory": s.reportHistory,
		"workerCount":   s.workerCount,
		"evaluations":   s.evaluations.Load(),
	}
	if s.started {
		stored := s.reports.Count(context.Background())
		stats["reportsStored"] = stored
		metrics.UpdateReportsStored(stored)
	}
	return stats
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

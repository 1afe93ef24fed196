// Package service provides the core analytics service that implements
// the dependencies required by the HTTP API.
//
// The Service is the single explicit context object of the system: it owns
// the source chain, the normalizer, the dataset cache, the scorer, the
// report assembler and the prober. Handlers hold nothing else.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minehaul/fleetsafety/internal/adapters/cache"
	"github.com/minehaul/fleetsafety/internal/adapters/probe"
	"github.com/minehaul/fleetsafety/internal/adapters/report"
	"github.com/minehaul/fleetsafety/internal/adapters/source"
	"github.com/minehaul/fleetsafety/internal/config"
	"github.com/minehaul/fleetsafety/internal/domain/aggregate"
	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/internal/domain/schema"
	"github.com/minehaul/fleetsafety/internal/domain/scoring"
	"github.com/minehaul/fleetsafety/internal/i18n"
	"github.com/minehaul/fleetsafety/pkg/logger"
	"github.com/minehaul/fleetsafety/pkg/metrics"
)

// Service implements the API dependencies for the fleet safety system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	resolver   *source.Resolver
	normalizer *schema.Normalizer
	cache      *cache.Cache
	scorer     *scoring.Scorer
	assembler  *report.Assembler
	prober     *probe.Prober

	// State
	started    bool
	uploadPath string
	now        func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithResolver replaces the configured source chain.
func WithResolver(r *source.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service from configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting fleet safety service...")

	if s.resolver == nil {
		s.resolver = source.New(buildChain(s.cfg), source.WithTimeout(s.cfg.LoadTimeout()))
	}
	s.normalizer = schema.New(
		schema.WithLocation(s.cfg.Location()),
		schema.WithThresholds(s.cfg.RiskThresholds),
	)
	s.cache = cache.New(
		cache.WithTTL(s.cfg.CacheTTL()),
		cache.WithCapacity(s.cfg.CacheEntries),
		cache.WithLoadTimeout(loadBudget(s.cfg.LoadTimeout(), len(s.resolver.Descriptors()))),
	)
	s.scorer = scoring.New(scoring.WithWeights(s.cfg.RiskWeights))
	s.assembler = report.New()
	s.prober = probe.New(s.cfg.SQL, probe.WithTimeout(s.cfg.ProbeTimeout()))

	s.started = true
	s.logger.Info(ctx, "fleet safety service started",
		logger.Int("sources", len(s.resolver.Descriptors())),
		logger.Duration("cacheTTL", s.cfg.CacheTTL()),
		logger.Int("cacheEntries", s.cfg.CacheEntries),
	)

	return nil
}

// Stop shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.cache.Purge()
	s.started = false
	s.logger.Info(context.Background(), "fleet safety service stopped")
}

// buildChain assembles the configured fallback chain in priority order:
// database, then network share, then the bundled sample.
func buildChain(cfg *config.Config) []source.Candidate {
	var chain []source.Candidate
	prio := 1
	if cfg.SQL.Enabled() {
		chain = append(chain, source.NewDatabaseCandidate(cfg.SQL, prio))
		prio++
	}
	if cfg.SharePath != "" {
		chain = append(chain, source.NewShareCandidate(cfg.SharePath, prio))
		prio++
	}
	if cfg.SampleData {
		chain = append(chain, source.NewSampleCandidate(prio))
	}
	return chain
}

// loadBudget sizes the whole-load timeout so every candidate can spend its
// full per-attempt timeout before the chain is cut off, with one extra
// attempt's worth for a session upload and normalization. A hung primary
// must leave the later candidates a live context.
func loadBudget(perAttempt time.Duration, chainLen int) time.Duration {
	return perAttempt * time.Duration(chainLen+2)
}

// Dataset returns the current normalized dataset, loading through the
// fallback chain on a cache miss. Concurrent callers share one load.
func (s *Service) Dataset(ctx context.Context) (*model.Dataset, error) {
	key := s.datasetKey()
	return s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (*model.Dataset, error) {
		return s.load(ctx)
	})
}

// Refresh drops the current dataset entry and reloads, so the caller never
// sees the data it just invalidated.
func (s *Service) Refresh(ctx context.Context) (*model.Dataset, error) {
	s.cache.Invalidate(s.datasetKey())
	return s.Dataset(ctx)
}

// SetUpload installs an uploaded file as the session's preferred source.
func (s *Service) SetUpload(path string) {
	s.mu.Lock()
	s.uploadPath = path
	s.mu.Unlock()
	s.resolver.SetOverride(source.NewUploadCandidate(path, 0))
}

// ClearUpload removes the session upload and restores the configured chain.
func (s *Service) ClearUpload() {
	s.mu.Lock()
	s.uploadPath = ""
	s.mu.Unlock()
	s.resolver.ClearOverride()
}

// Summary filters the dataset and aggregates it along one dimension.
func (s *Service) Summary(ctx context.Context, c aggregate.Criteria, dim aggregate.Dimension) (aggregate.Summary, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return aggregate.Summary{}, err
	}
	return aggregate.Aggregate(aggregate.Filter(ds, c), dim, s.cfg.TopN), nil
}

// Trend returns the daily risk-level trend for the filtered dataset.
func (s *Service) Trend(ctx context.Context, c aggregate.Criteria) ([]aggregate.TrendPoint, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.Trend(aggregate.Filter(ds, c)), nil
}

// WarningLetters tallies warning letters per driver for the filtered view.
func (s *Service) WarningLetters(ctx context.Context, c aggregate.Criteria) (map[string]int, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.WarningLetters(aggregate.Filter(ds, c), s.cfg.WarningThreshold), nil
}

// RiskScores computes ranked driver risk scores over the window.
func (s *Service) RiskScores(ctx context.Context, from, to time.Time) ([]model.RiskScore, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return scoring.Rank(s.scorer.Score(ds, from, to)), nil
}

// GenerateReport assembles a PDF report for the request window. Zero-value
// request fields are filled from configuration and the service clock.
func (s *Service) GenerateReport(ctx context.Context, req model.ReportRequest) (model.ReportArtifact, error) {
	if req.OutputDir == "" {
		req.OutputDir = s.cfg.ReportsDir
	}
	if req.Language == "" {
		req.Language = s.cfg.DefaultLanguage
	}
	if req.GeneratedAt.IsZero() {
		req.GeneratedAt = s.now()
	}
	if req.Scope == "" {
		req.Scope = model.ScopeFleet
	}
	if req.To.IsZero() {
		req.To = req.GeneratedAt
	}
	if req.From.IsZero() {
		req.From = req.To.AddDate(0, -1, 0)
	}

	ds, err := s.Dataset(ctx)
	if err != nil {
		return model.ReportArtifact{}, err
	}

	window := aggregate.Criteria{From: req.From, To: req.To}
	if req.Scope == model.ScopeDriver {
		window.DriverIDs = []string{req.DriverID}
	}
	view := aggregate.Filter(ds, window)

	speeding := aggregate.Filter(ds, aggregate.Criteria{
		From: req.From, To: req.To, EventTypes: []model.EventType{model.EventSpeeding},
	})

	in := report.Input{
		Dataset:     ds,
		Breakdown:   aggregate.Aggregate(view, aggregate.ByEventType, s.cfg.TopN),
		TopVehicles: aggregate.Aggregate(speeding, aggregate.ByVehicle, s.cfg.TopN),
		Trend:       aggregate.Trend(view),
		Ranked:      scoring.Rank(s.scorer.Score(ds, req.From, req.To)),
		Letters:     aggregate.WarningLetters(view, s.cfg.WarningThreshold),
	}

	return s.assembler.Generate(ctx, req, in, i18n.For(req.Language))
}

// Diagnostics probes every configured source directly, bypassing the cache.
func (s *Service) Diagnostics(ctx context.Context) []probe.Result {
	return s.prober.ProbeAll(ctx, s.resolver.Descriptors())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"cacheEntries": 0,
		"sources":      0,
		"uploadActive": s.uploadPath != "",
	}
	if s.started {
		stats["cacheEntries"] = s.cache.Len()
		stats["sources"] = len(s.resolver.Descriptors())
	}
	return stats
}

// UploadDestination derives where an uploaded file with the given name
// should land. The random prefix keeps concurrent sessions from clobbering
// each other's uploads.
func (s *Service) UploadDestination(filename string) string {
	return filepath.Join(s.cfg.UploadDir, uuid.NewString()+"_"+filepath.Base(filename))
}

// MaxUploadBytes reports the configured upload size cap.
func (s *Service) MaxUploadBytes() int64 {
	return int64(s.cfg.MaxUploadMB) << 20
}

// load walks the fallback chain and normalizes whatever batch survives.
func (s *Service) load(ctx context.Context) (*model.Dataset, error) {
	batch, desc, failures, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	ds, rep, err := s.normalizer.Normalize(batch)
	if err != nil {
		return nil, fmt.Errorf("normalize %s batch: %w", desc.Kind, err)
	}
	ds.Source = desc
	ds.LoadedAt = s.now()
	ds.Degraded = source.Degraded(desc, failures)
	if ds.Degraded {
		metrics.RecordDegradedResult()
	}

	s.logger.Info(ctx, "dataset loaded",
		logger.String("source", string(desc.Kind)),
		logger.Int("events", len(ds.Events)),
		logger.Int("dropped", rep.RowsIn-rep.RowsOut),
		logger.Bool("degraded", ds.Degraded),
	)
	return ds, nil
}

// datasetKey derives the cache key from the live chain shape, so a session
// upload or a cleared override lands on its own entry.
func (s *Service) datasetKey() string {
	descs := s.resolver.Descriptors()
	params := make([]string, 0, len(descs))
	for _, d := range descs {
		params = append(params, string(d.Kind)+":"+d.Location)
	}
	var first model.SourceDescriptor
	if len(descs) > 0 {
		first = descs[0]
	}
	return cache.Key(first, params...)
}

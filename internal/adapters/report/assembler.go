// Package report assembles PDF safety reports from aggregated telemetry.
//
// Documents are written atomically: the PDF is rendered to a temp file in
// the target directory, fsynced, then renamed. A failed generation never
// leaves a partial artifact behind.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/minehaul/fleetsafety/internal/domain/aggregate"
	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/internal/i18n"
	"github.com/minehaul/fleetsafety/pkg/logger"
	"github.com/minehaul/fleetsafety/pkg/metrics"
)

// Input carries the pre-aggregated material a report renders. The assembler
// never reaches back into the cache or the sources.
type Input struct {
	Dataset     *model.Dataset
	Breakdown   aggregate.Summary // events by type over the report window
	TopVehicles aggregate.Summary // speeding events by vehicle
	Trend       []aggregate.TrendPoint
	Ranked      []model.RiskScore // rank order, worst first
	Letters     map[string]int    // warning-letter tallies per driver
}

// Assembler renders report requests into PDF artifacts.
type Assembler struct {
	fontPath string
	log      logger.Logger
}

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithFontPath sets a UTF-8 TTF font used for non-Latin text. Without it
// the built-in Helvetica is used and CJK strings will not render.
func WithFontPath(path string) Option {
	return func(a *Assembler) { a.fontPath = path }
}

// WithLogger sets the assembler logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Assembler) {
		if log != nil {
			a.log = log
		}
	}
}

// New creates an Assembler with configuration options.
func New(opts ...Option) *Assembler {
	a := &Assembler{}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Named("report")
	}
	return a
}

// Generate renders the requested report and writes it atomically under
// req.OutputDir. The creation date baked into the PDF comes from the
// request, so identical inputs reproduce identical bytes.
func (a *Assembler) Generate(ctx context.Context, req model.ReportRequest, in Input, pack *i18n.Pack) (model.ReportArtifact, error) {
	start := time.Now()
	artifact, err := a.generate(ctx, req, in, pack)
	if err != nil {
		metrics.RecordReportFailure()
		return model.ReportArtifact{}, err
	}
	metrics.RecordReportGenerated(string(req.Scope))
	metrics.RecordReportDuration(time.Since(start).Seconds())
	a.log.Info(ctx, "report generated",
		logger.String("scope", string(req.Scope)),
		logger.String("path", artifact.Path),
		logger.Duration("took", time.Since(start)),
	)
	return artifact, nil
}

func (a *Assembler) generate(ctx context.Context, req model.ReportRequest, in Input, pack *i18n.Pack) (model.ReportArtifact, error) {
	if err := ctx.Err(); err != nil {
		return model.ReportArtifact{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if in.Dataset == nil {
		return model.ReportArtifact{}, fmt.Errorf("%w: no dataset", ErrGeneration)
	}
	if pack == nil {
		pack = i18n.For(i18n.DefaultLanguage)
	}

	var driver model.DriverProfile
	if req.Scope == model.ScopeDriver {
		p, ok := in.Dataset.Drivers[req.DriverID]
		if !ok {
			return model.ReportArtifact{}, fmt.Errorf("%w: %w: %s", ErrGeneration, ErrUnknownDriver, req.DriverID)
		}
		driver = p
	}

	doc := newDocument(a.fontPath, req.GeneratedAt)
	doc.footer(pack)
	doc.pdf.AddPage()

	switch req.Scope {
	case model.ScopeDriver:
		a.renderDriver(doc, req, in, pack, driver)
	default:
		a.renderFleet(doc, req, in, pack)
	}

	if err := doc.pdf.Error(); err != nil {
		return model.ReportArtifact{}, fmt.Errorf("%w: render: %w", ErrGeneration, err)
	}
	path, err := writeAtomic(doc.pdf, req)
	if err != nil {
		return model.ReportArtifact{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return model.ReportArtifact{
		Path:             path,
		GeneratedAt:      req.GeneratedAt,
		DatasetSignature: in.Dataset.Signature,
	}, nil
}

func (a *Assembler) renderDriver(doc *document, req model.ReportRequest, in Input, pack *i18n.Pack, driver model.DriverProfile) {
	doc.title(pack.T("driver_report_title"))
	a.renderMeta(doc, req, in, pack)

	doc.section(pack.T("driver"))
	doc.kv(pack.T("driver"), driver.Name)
	doc.kv(pack.T("driver_id"), driver.ID)
	doc.kv(pack.T("fleet_group"), driver.Group)
	doc.kv(pack.T("warning_letters"), fmt.Sprintf("%d", in.Letters[driver.ID]))

	if score, ok := findScore(in.Ranked, driver.ID); ok {
		doc.section(pack.T("risk_score"))
		doc.kv(pack.T("risk_score"), fmt.Sprintf("%.1f", score.Composite))
		doc.kv(pack.T("total_events"), fmt.Sprintf("%d", score.RawCount))
		doc.kv(pack.T("events_per_day"), fmt.Sprintf("%.2f", score.Rate))
		a.factorTable(doc, score, pack)
	}

	a.breakdownTable(doc, in.Breakdown, pack)
	a.trendChart(doc, in.Trend, pack)
}

func (a *Assembler) renderFleet(doc *document, req model.ReportRequest, in Input, pack *i18n.Pack) {
	doc.title(pack.T("report_title"))
	a.renderMeta(doc, req, in, pack)

	letters := 0
	for _, n := range in.Letters {
		letters += n
	}
	doc.kv(pack.T("total_events"), fmt.Sprintf("%d", len(in.Dataset.Events)))
	doc.kv(pack.T("warning_letters"), fmt.Sprintf("%d", letters))

	a.rankingTable(doc, in.Ranked, in.Dataset, pack)
	a.breakdownTable(doc, in.Breakdown, pack)
	a.vehicleChart(doc, in.TopVehicles, pack)
	a.trendChart(doc, in.Trend, pack)
}

func (a *Assembler) renderMeta(doc *document, req model.ReportRequest, in Input, pack *i18n.Pack) {
	doc.kv(pack.T("report_period"),
		req.From.Format("2006-01-02")+" - "+req.To.Format("2006-01-02"))
	doc.kv(pack.T("generated_at"), req.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	doc.kv(pack.T("data_source"), in.Dataset.Source.Name)
	if in.Dataset.Degraded {
		doc.notice(pack.T("degraded_notice"))
	}
	doc.gap()
}

func (a *Assembler) factorTable(doc *document, score model.RiskScore, pack *i18n.Pack) {
	types := make([]model.EventType, 0, len(score.Factors))
	for t := range score.Factors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return score.Factors[types[i]].Contribution > score.Factors[types[j]].Contribution
	})

	doc.tableHeader([]col{
		{pack.T("factor"), 60},
		{pack.T("count"), 30},
		{pack.T("weight"), 30},
		{pack.T("contribution"), 40},
	})
	for _, t := range types {
		f := score.Factors[t]
		doc.tableRow([]cell{
			{eventLabel(pack, t), 60},
			{fmt.Sprintf("%d", f.Count), 30},
			{fmt.Sprintf("%.1f", f.Weight), 30},
			{fmt.Sprintf("%.1f", f.Contribution), 40},
		})
	}
	doc.gap()
}

func (a *Assembler) breakdownTable(doc *document, sum aggregate.Summary, pack *i18n.Pack) {
	if len(sum.Buckets) == 0 {
		return
	}
	doc.section(pack.T("event_breakdown"))
	doc.tableHeader([]col{
		{pack.T("event_type"), 60},
		{pack.T("count"), 30},
		{pack.T("share"), 30},
		{pack.T("avg_overspeed"), 35},
		{pack.T("max_overspeed"), 35},
	})
	for _, b := range sum.Buckets {
		doc.tableRow([]cell{
			{eventLabel(pack, model.EventType(b.Key)), 60},
			{fmt.Sprintf("%d", b.Count), 30},
			{fmt.Sprintf("%.0f%%", b.Share*100), 30},
			{fmt.Sprintf("%.1f", b.AvgOverspeed), 35},
			{fmt.Sprintf("%.1f", b.MaxOverspeed), 35},
		})
	}
	doc.gap()
}

func (a *Assembler) rankingTable(doc *document, ranked []model.RiskScore, ds *model.Dataset, pack *i18n.Pack) {
	if len(ranked) == 0 {
		return
	}
	doc.section(pack.T("driver_ranking"))
	doc.tableHeader([]col{
		{pack.T("rank"), 15},
		{pack.T("driver"), 70},
		{pack.T("risk_score"), 35},
		{pack.T("count"), 30},
		{pack.T("events_per_day"), 40},
	})
	for i, s := range ranked {
		name := s.EntityID
		if p, ok := ds.Drivers[s.EntityID]; ok && p.Name != "" {
			name = p.Name
		}
		doc.tableRow([]cell{
			{fmt.Sprintf("%d", i+1), 15},
			{name, 70},
			{fmt.Sprintf("%.1f", s.Composite), 35},
			{fmt.Sprintf("%d", s.RawCount), 30},
			{fmt.Sprintf("%.2f", s.Rate), 40},
		})
	}
	doc.gap()
}

func (a *Assembler) vehicleChart(doc *document, sum aggregate.Summary, pack *i18n.Pack) {
	buckets := sum.TopN
	if len(buckets) == 0 {
		buckets = sum.Buckets
	}
	if len(buckets) == 0 {
		return
	}
	png, err := barChartPNG(pack.T("top_vehicles"), buckets)
	if err != nil {
		doc.pdf.SetError(err)
		return
	}
	doc.image("top_vehicles", png)
}

func (a *Assembler) trendChart(doc *document, points []aggregate.TrendPoint, pack *i18n.Pack) {
	if len(points) == 0 {
		return
	}
	png, err := trendChartPNG(pack.T("daily_trend"), points)
	if err != nil {
		doc.pdf.SetError(err)
		return
	}
	doc.image("daily_trend", png)
}

func findScore(ranked []model.RiskScore, driverID string) (model.RiskScore, bool) {
	for _, s := range ranked {
		if s.EntityID == driverID {
			return s, true
		}
	}
	return model.RiskScore{}, false
}

func eventLabel(pack *i18n.Pack, t model.EventType) string {
	switch t {
	case model.EventSpeeding:
		return pack.T("event_speeding")
	case model.EventHarshBrake:
		return pack.T("event_harsh_brake")
	case model.EventHarshAccel:
		return pack.T("event_harsh_accel")
	case model.EventIdle:
		return pack.T("event_idle")
	case model.EventGeofence:
		return pack.T("event_geofence")
	default:
		return string(t)
	}
}

// writeAtomic renders the document to <target>.tmp, fsyncs, then renames.
// The temp file is removed on any failure so the target stays untouched.
func writeAtomic(pdf *gofpdf.Fpdf, req model.ReportRequest) (string, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}
	target := filepath.Join(req.OutputDir, req.Filename())
	tmp := target + ".tmp"

	fh, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	if err := pdf.Output(fh); err != nil {
		fh.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write pdf: %w", err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("sync artifact: %w", err)
	}
	if err := fh.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return target, nil
}

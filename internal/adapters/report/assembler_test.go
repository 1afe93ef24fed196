package report_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/minehaul/fleetsafety/internal/adapters/report"
	"github.com/minehaul/fleetsafety/internal/domain/aggregate"
	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/internal/i18n"
	"github.com/minehaul/fleetsafety/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func fixtureInput() report.Input {
	ds := &model.Dataset{
		Events: []model.Event{
			{VehicleID: "DT-101", DriverID: "D-1001", Type: model.EventSpeeding},
			{VehicleID: "DT-101", DriverID: "D-1001", Type: model.EventHarshBrake},
		},
		Drivers: map[string]model.DriverProfile{
			"D-1001": {ID: "D-1001", Name: "Budi Santoso", Group: "Hauling A"},
			"D-1002": {ID: "D-1002", Name: "Siti Rahma", Group: "Hauling A"},
		},
		Source:    model.SourceDescriptor{Kind: model.SourceSample, Name: "bundled sample"},
		Signature: "abc123",
	}
	return report.Input{
		Dataset: ds,
		Breakdown: aggregate.Summary{
			Dimension: aggregate.ByEventType,
			Total:     2,
			Buckets: []aggregate.Bucket{
				{Key: "speeding", Count: 1, Share: 0.5, AvgOverspeed: 12, MaxOverspeed: 12},
				{Key: "harsh-brake", Count: 1, Share: 0.5},
			},
		},
		TopVehicles: aggregate.Summary{
			Dimension: aggregate.ByVehicle,
			Buckets:   []aggregate.Bucket{{Key: "DT-101", Count: 2, Share: 1}},
		},
		Trend: []aggregate.TrendPoint{
			{
				Day:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Counts: map[model.RiskLevel]int{model.RiskHigh: 1, model.RiskLow: 1},
				Total:  2,
			},
		},
		Ranked: []model.RiskScore{
			{
				EntityID:  "D-1001",
				Composite: 7,
				RawCount:  2,
				Rate:      0.07,
				Factors: map[model.EventType]model.Factor{
					model.EventSpeeding:   {Count: 1, Weight: 2, Contribution: 2},
					model.EventHarshBrake: {Count: 1, Weight: 5, Contribution: 5},
				},
			},
			{EntityID: "D-1002"},
		},
		Letters: map[string]int{"D-1001": 1},
	}
}

func fixtureRequest(scope model.ReportScope, dir string) model.ReportRequest {
	return model.ReportRequest{
		Scope:       scope,
		DriverID:    "D-1001",
		From:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Language:    "en",
		OutputDir:   dir,
		GeneratedAt: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestGenerateFleetReport(t *testing.T) {
	Convey("Given a fleet-scope request", t, func() {
		dir := t.TempDir()
		a := report.New()
		req := fixtureRequest(model.ScopeFleet, dir)

		artifact, err := a.Generate(context.Background(), req, fixtureInput(), i18n.For("en"))

		Convey("Then a PDF should land under the deterministic name", func() {
			So(err, ShouldBeNil)
			So(filepath.Base(artifact.Path), ShouldEqual, req.Filename())
			So(artifact.DatasetSignature, ShouldEqual, "abc123")

			data, err := os.ReadFile(artifact.Path)
			So(err, ShouldBeNil)
			So(strings.HasPrefix(string(data), "%PDF"), ShouldBeTrue)
		})

		Convey("Then no temp file should remain", func() {
			entries, err := os.ReadDir(dir)
			So(err, ShouldBeNil)
			for _, e := range entries {
				So(strings.HasSuffix(e.Name(), ".tmp"), ShouldBeFalse)
			}
		})
	})
}

func TestGenerateDriverReport(t *testing.T) {
	Convey("Given a driver-scope request", t, func() {
		dir := t.TempDir()
		a := report.New()

		Convey("When the driver exists", func() {
			artifact, err := a.Generate(context.Background(),
				fixtureRequest(model.ScopeDriver, dir), fixtureInput(), i18n.For("en"))

			So(err, ShouldBeNil)
			So(filepath.Base(artifact.Path), ShouldStartWith, "safety_driver-D-1001_")
		})

		Convey("When the driver is unknown", func() {
			req := fixtureRequest(model.ScopeDriver, dir)
			req.DriverID = "D-9999"
			_, err := a.Generate(context.Background(), req, fixtureInput(), i18n.For("en"))

			So(errors.Is(err, report.ErrUnknownDriver), ShouldBeTrue)
			So(errors.Is(err, report.ErrGeneration), ShouldBeTrue)
		})
	})
}

func TestGenerateAtomicity(t *testing.T) {
	Convey("Given an output directory that cannot be created", t, func() {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "reports")
		So(os.WriteFile(blocker, []byte("x"), 0o600), ShouldBeNil)

		a := report.New()
		req := fixtureRequest(model.ScopeFleet, blocker)
		_, err := a.Generate(context.Background(), req, fixtureInput(), i18n.For("en"))

		Convey("Then generation should fail without touching the target", func() {
			So(errors.Is(err, report.ErrGeneration), ShouldBeTrue)

			info, statErr := os.Stat(blocker)
			So(statErr, ShouldBeNil)
			So(info.IsDir(), ShouldBeFalse)
			So(info.Size(), ShouldEqual, 1)
		})
	})
}

func TestGenerateLanguageFallback(t *testing.T) {
	Convey("Given requests in each supported and one unknown language", t, func() {
		dir := t.TempDir()
		a := report.New()

		for i, lang := range []string{"en", "zh", "xx"} {
			req := fixtureRequest(model.ScopeFleet, dir)
			req.Language = lang
			req.GeneratedAt = req.GeneratedAt.Add(time.Duration(i) * time.Second) // distinct filenames

			_, err := a.Generate(context.Background(), req, fixtureInput(), i18n.For(lang))
			So(err, ShouldBeNil)
		}
	})
}

func TestGenerateReproducible(t *testing.T) {
	Convey("Given two runs with identical inputs", t, func() {
		a := report.New()
		in := fixtureInput()

		first, err := a.Generate(context.Background(), fixtureRequest(model.ScopeFleet, t.TempDir()), in, i18n.For("en"))
		So(err, ShouldBeNil)
		second, err := a.Generate(context.Background(), fixtureRequest(model.ScopeFleet, t.TempDir()), in, i18n.For("en"))
		So(err, ShouldBeNil)

		Convey("Then the artifacts should be byte-identical", func() {
			b1, err := os.ReadFile(first.Path)
			So(err, ShouldBeNil)
			b2, err := os.ReadFile(second.Path)
			So(err, ShouldBeNil)
			So(string(b1), ShouldEqual, string(b2))
		})
	})
}

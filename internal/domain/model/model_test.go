package model_test

import (
	"testing"
	"time"

	"github.com/minehaul/fleetsafety/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDatasetSignature(t *testing.T) {
	Convey("Given two datasets with the same events in different order", t, func() {
		ts := time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC)
		a := model.Event{OccurredAt: ts, VehicleID: "DT-101", DriverID: "d1", Type: model.EventSpeeding, OverspeedKPH: 12}
		b := model.Event{OccurredAt: ts.Add(time.Hour), VehicleID: "DT-102", DriverID: "d2", Type: model.EventHarshBrake}

		ds1 := &model.Dataset{Events: []model.Event{a, b}}
		ds2 := &model.Dataset{Events: []model.Event{b, a}}

		Convey("Then their signatures should match", func() {
			So(ds1.ComputeSignature(), ShouldEqual, ds2.ComputeSignature())
		})

		Convey("And changing any event should change the signature", func() {
			c := a
			c.OverspeedKPH = 13
			ds3 := &model.Dataset{Events: []model.Event{c, b}}
			So(ds3.ComputeSignature(), ShouldNotEqual, ds1.ComputeSignature())
		})
	})
}

func TestDedupeKey(t *testing.T) {
	Convey("Given events differing only in non-key fields", t, func() {
		ts := time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC)
		a := model.Event{OccurredAt: ts, VehicleID: "DT-101", Type: model.EventSpeeding, OverspeedKPH: 10}
		b := model.Event{OccurredAt: ts, VehicleID: "DT-101", Type: model.EventSpeeding, OverspeedKPH: 99}

		Convey("Then their dedupe keys should collide", func() {
			So(a.DedupeKey(), ShouldEqual, b.DedupeKey())
		})

		Convey("And a different event type should not collide", func() {
			c := a
			c.Type = model.EventIdle
			So(c.DedupeKey(), ShouldNotEqual, a.DedupeKey())
		})
	})
}

func TestReportFilename(t *testing.T) {
	Convey("Given a report request", t, func() {
		req := model.ReportRequest{
			Scope:       model.ScopeFleet,
			From:        time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			To:          time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
			GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		}

		Convey("Then the filename should be deterministic", func() {
			So(req.Filename(), ShouldEqual, req.Filename())
			So(req.Filename(), ShouldStartWith, "safety_fleet_20250201-20250228_")
			So(req.Filename(), ShouldEndWith, ".pdf")
		})

		Convey("And a driver scope should carry the driver id", func() {
			req.Scope = model.ScopeDriver
			req.DriverID = "d42"
			So(req.Filename(), ShouldStartWith, "safety_driver-d42_")
		})
	})
}

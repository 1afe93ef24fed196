package scoring_test

import (
	"testing"
	"time"

	"github.com/minehaul/fleetsafety/internal/domain/model"
	scoring "github.com/minehaul/fleetsafety/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func windowedDataset() (*model.Dataset, time.Time, time.Time) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	ds := &model.Dataset{
		Drivers: map[string]model.DriverProfile{
			"d1": {ID: "d1", Name: "Budi", Group: "A"},
			"d2": {ID: "d2", Name: "Siti", Group: "B"},
			"d3": {ID: "d3", Name: "Agus", Group: "A"},
		},
	}
	at := func(day int) time.Time { return from.AddDate(0, 0, day) }
	ds.Events = []model.Event{
		{OccurredAt: at(0), DriverID: "d1", VehicleID: "DT-1", Type: model.EventSpeeding},
		{OccurredAt: at(1), DriverID: "d1", VehicleID: "DT-1", Type: model.EventSpeeding},
		{OccurredAt: at(2), DriverID: "d1", VehicleID: "DT-1", Type: model.EventSpeeding},
		{OccurredAt: at(3), DriverID: "d1", VehicleID: "DT-1", Type: model.EventHarshBrake},
		{OccurredAt: at(1), DriverID: "d2", VehicleID: "DT-2", Type: model.EventIdle},
		// outside the window
		{OccurredAt: to, DriverID: "d2", VehicleID: "DT-2", Type: model.EventSpeeding},
		{OccurredAt: from.AddDate(0, 0, -1), DriverID: "d2", VehicleID: "DT-2", Type: model.EventSpeeding},
	}
	return ds, from, to
}

func TestScore(t *testing.T) {
	Convey("Given the configured weights", t, func() {
		s := scoring.New(scoring.WithWeights(map[string]float64{
			"speeding":    2,
			"harsh-brake": 5,
			"idle":        1,
		}))
		ds, from, to := windowedDataset()

		scores := s.Score(ds, from, to)

		Convey("Then the composite should be the weighted event sum", func() {
			// 3 speeding x 2 + 1 harsh-brake x 5
			So(scores["d1"].Composite, ShouldEqual, 11)
			So(scores["d1"].RawCount, ShouldEqual, 4)
			So(scores["d1"].Factors[model.EventSpeeding].Count, ShouldEqual, 3)
			So(scores["d1"].Factors[model.EventSpeeding].Contribution, ShouldEqual, 6)
			So(scores["d1"].Factors[model.EventHarshBrake].Contribution, ShouldEqual, 5)
		})

		Convey("Then the window should be half-open [from, to)", func() {
			So(scores["d2"].RawCount, ShouldEqual, 1)
			So(scores["d2"].Composite, ShouldEqual, 1)
		})

		Convey("Then a driver with no qualifying events should score zero, not be absent", func() {
			sc, ok := scores["d3"]
			So(ok, ShouldBeTrue)
			So(sc.Composite, ShouldEqual, 0)
			So(sc.RawCount, ShouldEqual, 0)
		})

		Convey("Then the rate should be events per window day", func() {
			So(scores["d1"].Rate, ShouldEqual, 4.0/7.0)
		})

		Convey("Then scoring should be deterministic", func() {
			again := s.Score(ds, from, to)
			So(again["d1"].Composite, ShouldEqual, scores["d1"].Composite)
			So(len(again), ShouldEqual, len(scores))
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given scores with ties", t, func() {
		mk := func(id string, composite float64, raw int) model.RiskScore {
			return model.RiskScore{EntityID: id, Composite: composite, RawCount: raw}
		}
		scores := map[string]model.RiskScore{
			"d4": mk("d4", 10, 5),
			"d1": mk("d1", 10, 8),
			"d3": mk("d3", 10, 5),
			"d2": mk("d2", 30, 3),
			"d5": mk("d5", 0, 0),
		}

		ranked := scoring.Rank(scores)

		Convey("Then ordering should break ties by raw count then id", func() {
			ids := make([]string, len(ranked))
			for i, r := range ranked {
				ids[i] = r.EntityID
			}
			So(ids, ShouldResemble, []string{"d2", "d1", "d3", "d4", "d5"})
		})

		Convey("Then ranking twice should give the same order", func() {
			again := scoring.Rank(scores)
			So(again, ShouldResemble, ranked)
		})
	})
}

func TestWeightFallback(t *testing.T) {
	Convey("Given a scorer with a default weight", t, func() {
		s := scoring.New(
			scoring.WithWeights(map[string]float64{"speeding": 2, "bogus": -1}),
			scoring.WithDefaultWeight(0.5),
		)

		Convey("Then unknown and invalid types should use the default", func() {
			So(s.Weight(model.EventSpeeding), ShouldEqual, 2)
			So(s.Weight(model.EventGeofence), ShouldEqual, 0.5)
			So(s.Weight(model.EventType("bogus")), ShouldEqual, 0.5)
		})
	})
}

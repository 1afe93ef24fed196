package schema_test

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/minehaul/fleetsafety/internal/config"
	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

func fleetBatch() model.RawBatch {
	return model.RawBatch{
		Kind: model.SourceShare,
		Header: []string{
			"Driver", "Driver ID", "Group", "Shift Date", "Start Time",
			"Event Type", "Overspeeding Value", "Speed Limit",
			"License Plate", "Shift", "Area",
		},
		Rows: [][]string{
			{"Budi Santoso", "d1", "Hauling A", "2025-03-01", "06:30", "Speeding", "22", "60", "DT-101", "day", "Pit North"},
			{"Budi Santoso", "d1", "Hauling A", "2025-03-01", "07:10", "Harsh Braking", "", "60", "DT-101", "day", "Pit North"},
			{"Siti Rahma", "d2", "Hauling B", "2025-03-02", "19:45", "Speeding", "8", "60", "DT-102", "night", "Ramp 3"},
			// exact duplicate of the first row
			{"Budi Santoso", "d1", "Hauling A", "2025-03-01", "06:30", "Speeding", "22", "60", "DT-101", "day", "Pit North"},
			// no vehicle id
			{"Agus", "d3", "Hauling A", "2025-03-01", "08:00", "Speeding", "9", "60", "", "day", "Pit North"},
			// unparseable timestamp
			{"Agus", "d3", "Hauling A", "not a date", "zz", "Speeding", "9", "60", "DT-103", "day", "Pit North"},
			// orphan: driver id referenced with a blank name never forms a profile
			{"", "d9", "Hauling B", "2025-03-02", "20:00", "Idling", "0", "60", "DT-104", "night", "Ramp 3"},
		},
	}
}

func TestNormalize(t *testing.T) {
	Convey("Given a normalizer and a share-style batch", t, func() {
		n := schema.New(schema.WithLocation(time.UTC))
		ds, rep, err := n.Normalize(fleetBatch())

		Convey("Then normalization should succeed", func() {
			So(err, ShouldBeNil)
			So(ds, ShouldNotBeNil)
		})

		Convey("Then drops should be counted, not silent", func() {
			So(rep.RowsIn, ShouldEqual, 7)
			So(rep.DroppedDuplicate, ShouldEqual, 1)
			So(rep.DroppedNoVehicle, ShouldEqual, 1)
			So(rep.DroppedBadTime, ShouldEqual, 1)
			So(rep.DroppedOrphan, ShouldEqual, 1)
			So(rep.RowsOut, ShouldEqual, 3)
			So(len(ds.Events), ShouldEqual, 3)
		})

		Convey("Then aliases should map into canonical fields", func() {
			e := ds.Events[0]
			So(e.VehicleID, ShouldEqual, "DT-101")
			So(e.DriverID, ShouldEqual, "d1")
			So(e.DriverName, ShouldEqual, "Budi Santoso")
			So(e.Group, ShouldEqual, "Hauling A")
			So(e.Shift, ShouldEqual, "Day")
			So(e.Type, ShouldEqual, model.EventSpeeding)
			So(e.OverspeedKPH, ShouldEqual, 22)
			So(e.OccurredAt, ShouldEqual, time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC))
		})

		Convey("Then event labels should canonicalize", func() {
			So(ds.Events[1].Type, ShouldEqual, model.EventHarshBrake)
		})

		Convey("Then risk levels should follow the thresholds", func() {
			So(ds.Events[0].RiskLevel, ShouldEqual, model.RiskExtreme) // 22 >= 20
			So(ds.Events[2].RiskLevel, ShouldEqual, model.RiskMedium)  // 8 >= 6
		})

		Convey("Then profiles should be denormalized from the batch", func() {
			So(len(ds.Drivers), ShouldEqual, 2)
			So(ds.Drivers["d1"].Name, ShouldEqual, "Budi Santoso")
			So(ds.Vehicles["DT-101"].Group, ShouldEqual, "Hauling A")
		})

		Convey("Then the dataset should carry a signature", func() {
			So(ds.Signature, ShouldNotBeEmpty)
		})
	})
}

func TestNormalizeLocalizedShiftLabel(t *testing.T) {
	Convey("Given a batch with a localized shift label", t, func() {
		batch := model.RawBatch{
			Kind:   model.SourceShare,
			Header: []string{"License Plate", "Shift Date", "Start Time", "Event Type", "Shift"},
			Rows: [][]string{
				{"DT-101", "2025-03-01", "06:30", "Speeding", "夜班"},
			},
		}
		n := schema.New(schema.WithLocation(time.UTC))
		ds, _, err := n.Normalize(batch)

		Convey("Then the label should survive as valid UTF-8", func() {
			So(err, ShouldBeNil)
			So(len(ds.Events), ShouldEqual, 1)
			So(ds.Events[0].Shift, ShouldEqual, "夜班")
			So(utf8.ValidString(ds.Events[0].Shift), ShouldBeTrue)
		})
	})
}

func TestNormalizeIdempotent(t *testing.T) {
	Convey("Given a normalized dataset rendered back to a batch", t, func() {
		n := schema.New(schema.WithLocation(time.UTC))
		first, _, err := n.Normalize(fleetBatch())
		So(err, ShouldBeNil)

		second, rep, err := n.Normalize(schema.ToBatch(first))

		Convey("Then re-normalizing should change nothing", func() {
			So(err, ShouldBeNil)
			So(rep.RowsOut, ShouldEqual, len(first.Events))
			So(rep.DroppedOrphan, ShouldEqual, 0)
			So(rep.DroppedDuplicate, ShouldEqual, 0)
			So(second.Signature, ShouldEqual, first.Signature)
			So(len(second.Drivers), ShouldEqual, len(first.Drivers))
		})
	})
}

func TestNormalizeIdentityColumns(t *testing.T) {
	Convey("Given batches missing identity columns", t, func() {
		n := schema.New()

		Convey("When the vehicle id column is absent", func() {
			_, _, err := n.Normalize(model.RawBatch{
				Header: []string{"Driver", "Shift Date", "Event Type"},
				Rows:   [][]string{{"Budi", "2025-03-01", "Speeding"}},
			})
			So(err, ShouldWrap, schema.ErrMissingIdentity)
		})

		Convey("When every timestamp column is absent", func() {
			_, _, err := n.Normalize(model.RawBatch{
				Header: []string{"License Plate", "Driver", "Event Type"},
				Rows:   [][]string{{"DT-101", "Budi", "Speeding"}},
			})
			So(err, ShouldWrap, schema.ErrMissingIdentity)
		})

		Convey("When only optional columns are absent", func() {
			ds, _, err := n.Normalize(model.RawBatch{
				Header: []string{"License Plate", "Shift Date"},
				Rows:   [][]string{{"DT-101", "2025-03-01"}},
			})
			So(err, ShouldBeNil)
			So(len(ds.Events), ShouldEqual, 1)
			So(ds.Events[0].Type, ShouldEqual, model.EventSpeeding)
		})
	})
}

func TestNormalizeCoercion(t *testing.T) {
	Convey("Given out-of-range numeric values", t, func() {
		n := schema.New(schema.WithThresholds(config.Thresholds{Extreme: 20, High: 11, Medium: 6}))
		batch := model.RawBatch{
			Header: []string{"License Plate", "Shift Date", "Overspeeding Value", "Speed Limit"},
			Rows: [][]string{
				{"DT-101", "2025-03-01", "-5", "60"},
				{"DT-102", "2025-03-01", "999", "60"},
				{"DT-103", "2025-03-01", "1,250", "60"},
			},
		}

		ds, rep, err := n.Normalize(batch)

		Convey("Then values should be clamped and counted", func() {
			So(err, ShouldBeNil)
			So(ds.Events[0].OverspeedKPH, ShouldEqual, 0)
			So(ds.Events[1].OverspeedKPH, ShouldEqual, 200)
			So(ds.Events[2].OverspeedKPH, ShouldEqual, 200)
			So(rep.Clamped, ShouldEqual, 3)
		})
	})
}

func TestNormalizeTimestampFormats(t *testing.T) {
	Convey("Given the timestamp layouts sources actually emit", t, func() {
		n := schema.New(schema.WithLocation(time.UTC))

		cases := map[string]time.Time{
			"2025-03-01 06:30:00":   time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC),
			"2025-03-01T06:30:00Z":  time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC),
			"01/03/2025 06:30":      time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC),
			"45717.270833333336":    time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC), // Excel serial
		}

		for raw, want := range cases {
			ds, _, err := n.Normalize(model.RawBatch{
				Header: []string{"License Plate", "Timestamp"},
				Rows:   [][]string{{"DT-101", raw}},
			})
			So(err, ShouldBeNil)
			So(len(ds.Events), ShouldEqual, 1)
			So(ds.Events[0].OccurredAt.UTC(), ShouldEqual, want)
		}
	})
}

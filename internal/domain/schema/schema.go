// Package schema maps source-specific tabular layouts into the canonical
// dataset and validates the result.
//
// The mapping is an explicit alias table checked at normalization time, not
// discovered at use time: a batch either yields canonical events or fails
// with ErrMissingIdentity.
package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/minehaul/fleetsafety/internal/config"
	"github.com/minehaul/fleetsafety/internal/domain/model"
	"github.com/minehaul/fleetsafety/pkg/metrics"
)

// Clamp bounds for coerced numeric fields. Values outside are clamped and
// counted, never discarded.
const (
	maxOverspeedKPH  = 200
	maxSpeedLimitKPH = 200
	maxSeverity      = 100
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

var timeOnlyLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
}

// Report summarizes what normalization changed or discarded. The dropped
// counts feed the diagnostics surface; nothing is silently swallowed.
type Report struct {
	RowsIn           int `json:"rows_in"`
	RowsOut          int `json:"rows_out"`
	DroppedNoVehicle int `json:"dropped_no_vehicle"`
	DroppedBadTime   int `json:"dropped_bad_time"`
	DroppedOrphan    int `json:"dropped_orphan"`
	DroppedDuplicate int `json:"dropped_duplicate"`
	Clamped          int `json:"clamped"`
}

// Normalizer converts raw batches into canonical datasets.
type Normalizer struct {
	loc        *time.Location
	thresholds config.Thresholds
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithLocation sets the timezone naive source timestamps are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithThresholds sets the overspeed risk-level thresholds.
func WithThresholds(t config.Thresholds) Option {
	return func(n *Normalizer) {
		n.thresholds = t
	}
}

// New creates a Normalizer with defaults matching the shipped config.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		loc:        time.UTC,
		thresholds: config.Thresholds{Extreme: 20, High: 11, Medium: 6},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps a raw batch into a canonical dataset. It fails only when
// the vehicle-id or timestamp columns are entirely absent; every other field
// is best-effort with unmapped optional fields left zero.
//
// Normalization is idempotent: running the canonical batch of a dataset
// through Normalize again yields an identical dataset.
func (n *Normalizer) Normalize(batch model.RawBatch) (*model.Dataset, *Report, error) {
	cols := mapHeader(batch.Header)
	rep := &Report{RowsIn: len(batch.Rows)}

	if _, ok := cols[colVehicleID]; !ok {
		return nil, rep, fmt.Errorf("%w: no vehicle id column in %v", ErrMissingIdentity, batch.Header)
	}
	_, hasTS := cols[colOccurredAt]
	_, hasDate := cols[colDate]
	_, hasTime := cols[colTime]
	if !hasTS && !hasDate && !hasTime {
		return nil, rep, fmt.Errorf("%w: no timestamp column in %v", ErrMissingIdentity, batch.Header)
	}

	_, hasName := cols[colDriverName]

	cell := func(row []string, canonical string) string {
		i, ok := cols[canonical]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	events := make([]model.Event, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		vehicle := cell(row, colVehicleID)
		if vehicle == "" {
			rep.DroppedNoVehicle++
			continue
		}

		ts, ok := n.parseTimestamp(cell(row, colOccurredAt), cell(row, colDate), cell(row, colTime))
		if !ok {
			rep.DroppedBadTime++
			continue
		}

		e := model.Event{
			OccurredAt: ts,
			VehicleID:  vehicle,
			DriverID:   cell(row, colDriverID),
			DriverName: cell(row, colDriverName),
			Group:      cell(row, colGroup),
			Shift:      capitalize(cell(row, colShift)),
			Type:       mapEventType(cell(row, colEventType)),
			Area:       cell(row, colArea),
		}
		if e.Type == "" {
			e.Type = model.EventSpeeding
		}
		// A driver referenced only by name still gets a stable id within
		// the load, so profile lookups and scoring have a key. A batch
		// with no name column at all self-identifies drivers by id.
		if e.DriverID == "" && e.DriverName != "" {
			e.DriverID = driverKey(e.DriverName)
		}
		if e.DriverName == "" && e.DriverID != "" && !hasName {
			e.DriverName = e.DriverID
		}

		e.OverspeedKPH = n.coerce(cell(row, colOverspeed), 0, maxOverspeedKPH, rep)
		e.SpeedLimitKPH = n.coerce(cell(row, colSpeedLimit), 0, maxSpeedLimitKPH, rep)
		e.Severity = n.coerce(cell(row, colSeverity), 0, maxSeverity, rep)
		if e.Severity == 0 {
			e.Severity = e.OverspeedKPH
		}
		e.Latitude = n.coerce(cell(row, colLatitude), -90, 90, rep)
		e.Longitude = n.coerce(cell(row, colLongitude), -180, 180, rep)
		e.RiskLevel = n.riskLevel(e.OverspeedKPH)

		events = append(events, e)
	}

	// Profiles are denormalized from the batch before the orphan check so
	// the check runs against the same load.
	drivers := make(map[string]model.DriverProfile)
	vehicles := make(map[string]model.VehicleProfile)
	for _, e := range events {
		if e.DriverID != "" && e.DriverName != "" {
			if _, ok := drivers[e.DriverID]; !ok {
				drivers[e.DriverID] = model.DriverProfile{ID: e.DriverID, Name: e.DriverName, Group: e.Group}
			}
		}
		if _, ok := vehicles[e.VehicleID]; !ok {
			vehicles[e.VehicleID] = model.VehicleProfile{ID: e.VehicleID, Plate: e.VehicleID, Group: e.Group}
		}
	}

	seen := make(map[string]struct{}, len(events))
	kept := events[:0]
	for _, e := range events {
		if e.DriverID != "" {
			if _, ok := drivers[e.DriverID]; !ok {
				rep.DroppedOrphan++
				continue
			}
		}
		key := e.DedupeKey()
		if _, dup := seen[key]; dup {
			rep.DroppedDuplicate++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, e)
	}
	rep.RowsOut = len(kept)

	metrics.RecordRowsNormalized(rep.RowsOut)
	metrics.RecordRowsDropped("no_vehicle", rep.DroppedNoVehicle)
	metrics.RecordRowsDropped("bad_time", rep.DroppedBadTime)
	metrics.RecordRowsDropped("orphan", rep.DroppedOrphan)
	metrics.RecordRowsDropped("duplicate", rep.DroppedDuplicate)
	metrics.RecordValuesClamped(rep.Clamped)

	ds := &model.Dataset{
		Events:   kept,
		Drivers:  drivers,
		Vehicles: vehicles,
	}
	ds.Signature = ds.ComputeSignature()
	return ds, rep, nil
}

// ToBatch renders a canonical dataset back into a raw batch using canonical
// column names. Feeding the result through Normalize reproduces the dataset.
func ToBatch(ds *model.Dataset) model.RawBatch {
	header := []string{
		colVehicleID, colOccurredAt, colDriverID, colDriverName, colGroup,
		colShift, colEventType, colArea, colLatitude, colLongitude,
		colOverspeed, colSpeedLimit, colSeverity,
	}
	rows := make([][]string, 0, len(ds.Events))
	for _, e := range ds.Events {
		rows = append(rows, []string{
			e.VehicleID,
			e.OccurredAt.Format(time.RFC3339),
			e.DriverID,
			e.DriverName,
			e.Group,
			e.Shift,
			string(e.Type),
			e.Area,
			formatFloat(e.Latitude),
			formatFloat(e.Longitude),
			formatFloat(e.OverspeedKPH),
			formatFloat(e.SpeedLimitKPH),
			formatFloat(e.Severity),
		})
	}
	return model.RawBatch{Kind: ds.Source.Kind, Header: header, Rows: rows}
}

// parseTimestamp resolves the event instant from either a combined column
// or separate date and time columns. Naive values are interpreted in the
// configured location; Excel serial dates are accepted.
func (n *Normalizer) parseTimestamp(combined, date, clock string) (time.Time, bool) {
	if combined != "" {
		if ts, ok := n.parseLayouts(combined, timestampLayouts); ok {
			return ts, true
		}
		if ts, ok := parseExcelSerial(combined); ok {
			return ts, true
		}
	}
	if date != "" {
		base, ok := n.parseLayouts(date, timestampLayouts)
		if !ok {
			base, ok = parseExcelSerial(date)
		}
		if ok {
			if clock != "" {
				for _, layout := range timeOnlyLayouts {
					if t, err := time.ParseInLocation(layout, clock, n.loc); err == nil {
						return time.Date(base.Year(), base.Month(), base.Day(),
							t.Hour(), t.Minute(), t.Second(), 0, n.loc), true
					}
				}
				// A full datetime in the time column beats the date column.
				if ts, ok := n.parseLayouts(clock, timestampLayouts); ok {
					return ts, true
				}
			}
			return base, true
		}
	}
	if clock != "" {
		if ts, ok := n.parseLayouts(clock, timestampLayouts); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

func (n *Normalizer) parseLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseExcelSerial converts an Excel day serial (days since 1899-12-30,
// fraction is time of day) into an instant.
func parseExcelSerial(s string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 || serial > 200_000 {
		return time.Time{}, false
	}
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	days := math.Floor(serial)
	frac := serial - days
	// Whole seconds only, so round-tripping through RFC3339 is lossless.
	secs := math.Round(frac * 24 * 3600)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), true
}

// coerce parses a numeric cell and clamps it into [lo, hi], counting clamps.
func (n *Normalizer) coerce(s string, lo, hi float64, rep *Report) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	if v < lo {
		rep.Clamped++
		return lo
	}
	if v > hi {
		rep.Clamped++
		return hi
	}
	return v
}

func (n *Normalizer) riskLevel(overspeed float64) model.RiskLevel {
	switch {
	case overspeed >= n.thresholds.Extreme:
		return model.RiskExtreme
	case overspeed >= n.thresholds.High:
		return model.RiskHigh
	case overspeed >= n.thresholds.Medium:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// capitalize upper-cases the first rune only; shift labels in localized
// exports may start with a multibyte rune.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// driverKey derives a stable within-load id for drivers referenced only by
// name.
func driverKey(name string) string {
	return "name:" + strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

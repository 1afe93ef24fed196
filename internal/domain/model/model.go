// Package model contains the canonical domain types passed between layers.
//
// Everything downstream of normalization (cache, scoring, aggregation,
// reports) consumes these types; source-specific layouts never leak past
// the schema package.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// SourceKind identifies a class of backing data source.
type SourceKind string

const (
	SourceUpload   SourceKind = "upload"
	SourceDatabase SourceKind = "database"
	SourceShare    SourceKind = "share"
	SourceSample   SourceKind = "sample"
)

// SourceDescriptor describes one configured data source. Immutable once
// resolved for a session.
type SourceDescriptor struct {
	Kind     SourceKind
	Name     string // human-readable, e.g. host/database or file path
	Location string // DSN or filesystem path, depending on kind
	Priority int    // lower tries first
}

// EventType classifies a safety event.
type EventType string

const (
	EventSpeeding   EventType = "speeding"
	EventHarshBrake EventType = "harsh-brake"
	EventHarshAccel EventType = "harsh-accel"
	EventIdle       EventType = "idle"
	EventGeofence   EventType = "geofence"
)

// RiskLevel buckets the magnitude of a single event.
type RiskLevel string

const (
	RiskExtreme RiskLevel = "extreme"
	RiskHigh    RiskLevel = "high"
	RiskMedium  RiskLevel = "medium"
	RiskLow     RiskLevel = "low"
)

// Event is one canonical safety event record. Produced only by the schema
// normalizer and never mutated afterwards; corrections require re-ingestion.
type Event struct {
	OccurredAt    time.Time
	VehicleID     string
	DriverID      string
	DriverName    string
	Group         string
	Shift         string
	Type          EventType
	Area          string
	Latitude      float64
	Longitude     float64
	OverspeedKPH  float64
	SpeedLimitKPH float64
	Severity      float64
	RiskLevel     RiskLevel
}

// DedupeKey identifies exact-duplicate events within one batch.
func (e Event) DedupeKey() string {
	return e.VehicleID + "|" + e.OccurredAt.UTC().Format(time.RFC3339) + "|" + string(e.Type)
}

// DriverProfile is a driver identity denormalized from the source batch.
type DriverProfile struct {
	ID    string
	Name  string
	Group string
}

// VehicleProfile is a vehicle identity denormalized from the source batch.
type VehicleProfile struct {
	ID    string
	Plate string
	Group string
}

// Dataset is the canonical, source-independent dataset all downstream
// components consume.
type Dataset struct {
	Events   []Event
	Drivers  map[string]DriverProfile
	Vehicles map[string]VehicleProfile

	Source    SourceDescriptor
	Signature string // content hash; report artifacts record it
	Degraded  bool   // true when the preferred sources were unavailable
	LoadedAt  time.Time
}

// ComputeSignature derives a stable content hash over the event set. Events
// are hashed in a canonical order so signature equality means dataset
// equality regardless of source row order.
func (d *Dataset) ComputeSignature() string {
	events := make([]Event, len(d.Events))
	copy(events, d.Events)
	sort.Slice(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.Before(events[j].OccurredAt)
		}
		if events[i].VehicleID != events[j].VehicleID {
			return events[i].VehicleID < events[j].VehicleID
		}
		return events[i].Type < events[j].Type
	})

	h := sha256.New()
	for _, e := range events {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%.3f|%.3f\n",
			e.OccurredAt.UTC().Format(time.RFC3339Nano),
			e.VehicleID, e.DriverID, e.Type, e.Shift,
			e.OverspeedKPH, e.Severity)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RawBatch is the untyped tabular output of a source candidate, before
// normalization. Header names are source-specific.
type RawBatch struct {
	Kind   SourceKind
	Header []string
	Rows   [][]string
}

// Empty reports whether the batch carries no data rows.
func (b RawBatch) Empty() bool { return len(b.Rows) == 0 }

// Factor is one event type's contribution to a composite risk score.
type Factor struct {
	Count        int     `json:"count"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// RiskScore is the derived risk standing of one driver over a scoring
// window. Recomputed on every call; never persisted as source of truth.
type RiskScore struct {
	EntityID    string                `json:"entity_id"`
	WindowStart time.Time             `json:"window_start"`
	WindowEnd   time.Time             `json:"window_end"`
	Composite   float64               `json:"composite"`
	RawCount    int                   `json:"raw_count"`
	Rate        float64               `json:"rate"`
	Factors     map[EventType]Factor  `json:"factors"`
}

// ReportScope selects between a single-driver and a fleet-wide report.
type ReportScope string

const (
	ScopeDriver ReportScope = "driver"
	ScopeFleet  ReportScope = "fleet"
)

// ReportRequest is the value object describing one report invocation.
type ReportRequest struct {
	Scope       ReportScope
	DriverID    string // required when Scope == ScopeDriver
	From        time.Time
	To          time.Time
	Language    string
	OutputDir   string
	GeneratedAt time.Time // fixed into the document for reproducible output
}

// Filename derives the deterministic artifact name for the request.
func (r ReportRequest) Filename() string {
	scope := string(r.Scope)
	if r.Scope == ScopeDriver && r.DriverID != "" {
		scope = "driver-" + r.DriverID
	}
	return "safety_" + scope +
		"_" + r.From.Format("20060102") + "-" + r.To.Format("20060102") +
		"_" + strconv.FormatInt(r.GeneratedAt.Unix(), 10) + ".pdf"
}

// ReportArtifact records a generated report file.
type ReportArtifact struct {
	Path             string    `json:"path"`
	GeneratedAt      time.Time `json:"generated_at"`
	DatasetSignature string    `json:"dataset_signature"`
}

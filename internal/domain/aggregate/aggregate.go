// Package aggregate filters the canonical dataset and produces grouped
// summaries for views and reports.
//
// Filtering criteria compose conjunctively. An empty result is a valid
// outcome, distinguishable from a failed load because the caller still
// holds a dataset.
package aggregate

import (
	"sort"
	"time"

	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// Criteria narrows a dataset. Zero values mean "no constraint".
type Criteria struct {
	From       time.Time
	To         time.Time // half-open: events at or after To are excluded
	Groups     []string
	DriverIDs  []string
	VehicleIDs []string
	Shift      string
	EventTypes []model.EventType
}

// View is the filtered slice of a dataset. Empty views are valid.
type View struct {
	Events []model.Event
}

// Empty reports whether the view holds no events.
func (v View) Empty() bool { return len(v.Events) == 0 }

// Dimension selects what a summary groups by.
type Dimension string

const (
	ByDriver    Dimension = "driver"
	ByVehicle   Dimension = "vehicle"
	ByGroup     Dimension = "group"
	ByEventType Dimension = "event_type"
	ByShift     Dimension = "shift"
	ByDay       Dimension = "day"
)

// Bucket is one group's aggregate.
type Bucket struct {
	Key          string  `json:"key"`
	Label        string  `json:"label,omitempty"`
	Count        int     `json:"count"`
	Share        float64 `json:"share"`
	AvgOverspeed float64 `json:"avg_overspeed"`
	MaxOverspeed float64 `json:"max_overspeed"`
}

// Summary is the grouped aggregate of a view.
type Summary struct {
	Dimension Dimension `json:"dimension"`
	Total     int       `json:"total"`
	Buckets   []Bucket  `json:"buckets"`
	TopN      []Bucket  `json:"top_n"`
}

// TrendPoint is one day of the risk-level event trend.
type TrendPoint struct {
	Day    time.Time               `json:"day"`
	Counts map[model.RiskLevel]int `json:"counts"`
	Total  int                     `json:"total"`
}

// Filter applies the criteria conjunctively and returns the matching view.
func Filter(ds *model.Dataset, c Criteria) View {
	groups := toSet(c.Groups)
	drivers := toSet(c.DriverIDs)
	vehicles := toSet(c.VehicleIDs)
	types := make(map[model.EventType]struct{}, len(c.EventTypes))
	for _, t := range c.EventTypes {
		types[t] = struct{}{}
	}

	var out []model.Event
	for _, e := range ds.Events {
		if !c.From.IsZero() && e.OccurredAt.Before(c.From) {
			continue
		}
		if !c.To.IsZero() && !e.OccurredAt.Before(c.To) {
			continue
		}
		if len(groups) > 0 {
			if _, ok := groups[e.Group]; !ok {
				continue
			}
		}
		if len(drivers) > 0 {
			if _, ok := drivers[e.DriverID]; !ok {
				continue
			}
		}
		if len(vehicles) > 0 {
			if _, ok := vehicles[e.VehicleID]; !ok {
				continue
			}
		}
		if c.Shift != "" && e.Shift != c.Shift {
			continue
		}
		if len(types) > 0 {
			if _, ok := types[e.Type]; !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return View{Events: out}
}

// Aggregate groups a view by the requested dimension, producing counts,
// shares, overspeed stats and a top-N ranking. Bucket order is
// deterministic: count descending, then key ascending.
func Aggregate(v View, dim Dimension, topN int) Summary {
	type acc struct {
		count int
		sum   float64
		max   float64
		label string
	}
	accs := make(map[string]*acc)

	for _, e := range v.Events {
		key, label := bucketKey(e, dim)
		a, ok := accs[key]
		if !ok {
			a = &acc{label: label}
			accs[key] = a
		}
		a.count++
		a.sum += e.OverspeedKPH
		if e.OverspeedKPH > a.max {
			a.max = e.OverspeedKPH
		}
	}

	total := len(v.Events)
	buckets := make([]Bucket, 0, len(accs))
	for key, a := range accs {
		b := Bucket{
			Key:          key,
			Label:        a.label,
			Count:        a.count,
			MaxOverspeed: a.max,
			AvgOverspeed: a.sum / float64(a.count),
		}
		if total > 0 {
			b.Share = float64(a.count) / float64(total)
		}
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})

	if topN <= 0 || topN > len(buckets) {
		topN = len(buckets)
	}
	top := make([]Bucket, topN)
	copy(top, buckets[:topN])

	return Summary{Dimension: dim, Total: total, Buckets: buckets, TopN: top}
}

// Trend buckets a view's events by calendar day and risk level, ordered by
// day. Used for the speeding-trend chart in reports.
func Trend(v View) []TrendPoint {
	byDay := make(map[string]*TrendPoint)
	for _, e := range v.Events {
		day := time.Date(e.OccurredAt.Year(), e.OccurredAt.Month(), e.OccurredAt.Day(), 0, 0, 0, 0, e.OccurredAt.Location())
		key := day.Format("2006-01-02")
		p, ok := byDay[key]
		if !ok {
			p = &TrendPoint{Day: day, Counts: map[model.RiskLevel]int{}}
			byDay[key] = p
		}
		p.Counts[e.RiskLevel]++
		p.Total++
	}
	points := make([]TrendPoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Day.Before(points[j].Day) })
	return points
}

// WarningLetters counts warning letters per driver: one letter per distinct
// (driver, shift date, shift) with an overspeed at or above the threshold.
func WarningLetters(v View, threshold float64) map[string]int {
	seen := make(map[string]struct{})
	letters := make(map[string]int)
	for _, e := range v.Events {
		if e.DriverID == "" || e.OverspeedKPH < threshold {
			continue
		}
		key := e.DriverID + "|" + e.OccurredAt.Format("2006-01-02") + "|" + e.Shift
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		letters[e.DriverID]++
	}
	return letters
}

func bucketKey(e model.Event, dim Dimension) (key, label string) {
	switch dim {
	case ByDriver:
		return e.DriverID, e.DriverName
	case ByVehicle:
		return e.VehicleID, ""
	case ByGroup:
		return e.Group, ""
	case ByEventType:
		return string(e.Type), ""
	case ByShift:
		return e.Shift, ""
	case ByDay:
		return e.OccurredAt.Format("2006-01-02"), ""
	default:
		return e.DriverID, e.DriverName
	}
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

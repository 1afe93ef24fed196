// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/url"
	"time"

	"github.com/minehaul/fleetsafety/internal/domain/aggregate"
	"github.com/minehaul/fleetsafety/internal/domain/model"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate accepts RFC3339 timestamps or plain dates.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrBadRequest, s)
}

// parseCriteria maps filter query parameters onto aggregation criteria.
// Multi-valued parameters repeat: ?group=A&group=B.
func parseCriteria(q url.Values) (aggregate.Criteria, error) {
	from, err := parseDate(q.Get("from"))
	if err != nil {
		return aggregate.Criteria{}, err
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		return aggregate.Criteria{}, err
	}

	c := aggregate.Criteria{
		From:       from,
		To:         to,
		Groups:     q["group"],
		DriverIDs:  q["driver"],
		VehicleIDs: q["vehicle"],
		Shift:      q.Get("shift"),
	}
	for _, t := range q["type"] {
		c.EventTypes = append(c.EventTypes, model.EventType(t))
	}
	return c, nil
}

// parseDimension maps the "by" parameter onto a grouping dimension,
// defaulting to event type.
func parseDimension(s string) (aggregate.Dimension, error) {
	switch s {
	case "", "event_type":
		return aggregate.ByEventType, nil
	case "driver":
		return aggregate.ByDriver, nil
	case "vehicle":
		return aggregate.ByVehicle, nil
	case "group":
		return aggregate.ByGroup, nil
	case "shift":
		return aggregate.ByShift, nil
	case "day":
		return aggregate.ByDay, nil
	default:
		return "", fmt.Errorf("%w: unknown dimension %q", ErrBadRequest, s)
	}
}

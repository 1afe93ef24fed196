package schema

import (
	"strings"

	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// Canonical column names. Already-normalized batches use these, which is
// what makes normalization idempotent.
const (
	colVehicleID  = "vehicle_id"
	colOccurredAt = "occurred_at"
	colDate       = "date"
	colTime       = "time"
	colDriverID   = "driver_id"
	colDriverName = "driver_name"
	colGroup      = "group"
	colShift      = "shift"
	colEventType  = "event_type"
	colArea       = "area"
	colLatitude   = "latitude"
	colLongitude  = "longitude"
	colOverspeed  = "overspeed_kph"
	colSpeedLimit = "speed_limit_kph"
	colSeverity   = "severity"
)

// columnAliases maps the column names seen across the fleet exports (SQL
// table, network-share workbook, ad-hoc uploads) to canonical columns.
// Matching is case-insensitive on the folded form of the header cell.
var columnAliases = map[string]string{
	// vehicle identity
	"vehicle_id":    colVehicleID,
	"license plate": colVehicleID,
	"license_plate": colVehicleID,
	"plate no":      colVehicleID,
	"vehicle no":    colVehicleID,
	"vehicle_no":    colVehicleID,
	"equipment":     colVehicleID,
	"unit":          colVehicleID,

	// timestamps
	"occurred_at": colOccurredAt,
	"timestamp":   colOccurredAt,
	"event time":  colOccurredAt,
	"datetime":    colOccurredAt,
	"start time":  colTime,
	"time":        colTime,
	"date":        colDate,
	"shift date":  colDate,
	"shift_date":  colDate,

	// driver identity
	"driver_id":   colDriverID,
	"driver id":   colDriverID,
	"employee id": colDriverID,
	"driver_name": colDriverName,
	"driver name": colDriverName,
	"driver":      colDriverName,

	// grouping
	"group":       colGroup,
	"fleet group": colGroup,
	"department":  colGroup,
	"shift":       colShift,

	// event classification
	"event_type": colEventType,
	"event type": colEventType,
	"type":       colEventType,

	// location
	"area":      colArea,
	"location":  colArea,
	"latitude":  colLatitude,
	"lat":       colLatitude,
	"longitude": colLongitude,
	"lon":       colLongitude,
	"lng":       colLongitude,

	// magnitudes
	"overspeed_kph":      colOverspeed,
	"overspeeding value": colOverspeed,
	"overspeed":          colOverspeed,
	"over speed":         colOverspeed,
	"speed_limit_kph":    colSpeedLimit,
	"speed limit":        colSpeedLimit,
	"severity":           colSeverity,
	"magnitude":          colSeverity,
}

// eventTypeAliases maps source event labels to canonical event types.
var eventTypeAliases = map[string]model.EventType{
	"speeding":           model.EventSpeeding,
	"overspeed":          model.EventSpeeding,
	"over speeding":      model.EventSpeeding,
	"harsh brake":        model.EventHarshBrake,
	"harsh braking":      model.EventHarshBrake,
	"hard brake":         model.EventHarshBrake,
	"harsh-brake":        model.EventHarshBrake,
	"harsh accel":        model.EventHarshAccel,
	"harsh acceleration": model.EventHarshAccel,
	"hard acceleration":  model.EventHarshAccel,
	"harsh-accel":        model.EventHarshAccel,
	"idle":               model.EventIdle,
	"idling":             model.EventIdle,
	"excessive idle":     model.EventIdle,
	"geofence":           model.EventGeofence,
	"geo-fence":          model.EventGeofence,
	"zone violation":     model.EventGeofence,
}

// foldHeader normalizes a header cell for alias lookup.
func foldHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mapHeader resolves each header cell to a canonical column, or "" when the
// column has no mapping and is ignored.
func mapHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		canonical, ok := columnAliases[foldHeader(h)]
		if !ok {
			continue
		}
		// First mapping wins when a sheet repeats a column.
		if _, seen := cols[canonical]; !seen {
			cols[canonical] = i
		}
	}
	return cols
}

// HasIdentityColumns reports whether a header carries the minimum columns
// normalization needs: a vehicle id plus some timestamp. The source
// resolver uses it as the structural plausibility check on fetched batches.
func HasIdentityColumns(header []string) bool {
	cols := mapHeader(header)
	if _, ok := cols[colVehicleID]; !ok {
		return false
	}
	_, hasTS := cols[colOccurredAt]
	_, hasDate := cols[colDate]
	_, hasTime := cols[colTime]
	return hasTS || hasDate || hasTime
}

// mapEventType resolves a source event label to a canonical type. Unknown
// labels pass through folded so they stay visible in aggregations.
func mapEventType(s string) model.EventType {
	folded := foldHeader(s)
	if t, ok := eventTypeAliases[folded]; ok {
		return t
	}
	return model.EventType(folded)
}

// Package i18n holds the string tables used by generated reports.
package i18n

// DefaultLanguage is served when a requested language is unknown.
const DefaultLanguage = "en"

// Pack is one language's string table.
type Pack struct {
	lang    string
	strings map[string]string
}

// Lang reports the pack's language code.
func (p *Pack) Lang() string { return p.lang }

// T resolves a key. A key missing from the pack falls back to the default
// pack, then to the key itself, so a thin translation never fails a report.
func (p *Pack) T(key string) string {
	if s, ok := p.strings[key]; ok {
		return s
	}
	if p.lang != DefaultLanguage {
		if s, ok := packs[DefaultLanguage].strings[key]; ok {
			return s
		}
	}
	return key
}

// For returns the pack for lang, or the default pack when lang is unknown.
func For(lang string) *Pack {
	if p, ok := packs[lang]; ok {
		return p
	}
	return packs[DefaultLanguage]
}

// Languages lists the supported language codes.
func Languages() []string {
	return []string{"en", "zh"}
}

var packs = map[string]*Pack{
	"en": {lang: "en", strings: map[string]string{
		"report_title":         "Fleet Safety Report",
		"driver_report_title":  "Driver Safety Report",
		"report_period":        "Report Period",
		"generated_at":         "Generated",
		"data_source":          "Data Source",
		"degraded_notice":      "Generated from bundled sample data; configured sources were unreachable.",
		"driver":               "Driver",
		"driver_id":            "Driver ID",
		"fleet_group":          "Fleet Group",
		"vehicle":              "Vehicle",
		"shift":                "Shift",
		"total_events":         "Total Events",
		"total_speeding":       "Total Speeding Events",
		"extreme_risk_events":  "Extreme Risk Events",
		"high_risk_events":     "High Risk Events",
		"medium_risk_events":   "Medium Risk Events",
		"low_risk_events":      "Low Risk Events",
		"risk_score":           "Risk Score",
		"driver_ranking":       "Driver Ranking",
		"rank":                 "Rank",
		"event_breakdown":      "Event Breakdown",
		"event_type":           "Event Type",
		"count":                "Count",
		"share":                "Share",
		"avg_overspeed":        "Avg Overspeed",
		"max_overspeed":        "Max Overspeed",
		"factor":               "Factor",
		"weight":               "Weight",
		"contribution":         "Contribution",
		"events_per_day":       "Events / Day",
		"daily_trend":          "Daily Speeding Trend",
		"top_vehicles":         "Top Speeding Vehicles",
		"warning_letters":      "Warning Letters",
		"risk_extreme":         "Extreme",
		"risk_high":            "High",
		"risk_medium":          "Medium",
		"risk_low":             "Low",
		"event_speeding":       "Speeding",
		"event_harsh_brake":    "Harsh Braking",
		"event_harsh_accel":    "Harsh Acceleration",
		"event_idle":           "Idling",
		"event_geofence":       "Geofence Violation",
		"no_data":              "No data available for the selected filters",
		"page":                 "Page",
	}},
	"zh": {lang: "zh", strings: map[string]string{
		"report_title":         "车队安全报告",
		"driver_report_title":  "驾驶员安全报告",
		"report_period":        "报告期",
		"generated_at":         "生成时间",
		"data_source":          "数据源",
		"degraded_notice":      "由内置示例数据生成；配置的数据源不可达。",
		"driver":               "驾驶员",
		"driver_id":            "驾驶员编号",
		"fleet_group":          "车队组",
		"vehicle":              "车辆",
		"shift":                "班次",
		"total_events":         "总事件数",
		"total_speeding":       "总超速事件",
		"extreme_risk_events":  "极高风险事件",
		"high_risk_events":     "高风险事件",
		"medium_risk_events":   "中风险事件",
		"low_risk_events":      "低风险事件",
		"risk_score":           "风险评分",
		"driver_ranking":       "驾驶员排名",
		"rank":                 "排名",
		"event_breakdown":      "事件明细",
		"event_type":           "事件类型",
		"count":                "数量",
		"share":                "占比",
		"avg_overspeed":        "平均超速",
		"max_overspeed":        "最大超速",
		"factor":               "因素",
		"weight":               "权重",
		"contribution":         "贡献",
		"events_per_day":       "事件/天",
		"daily_trend":          "每日超速趋势",
		"top_vehicles":         "超速事件最多的车辆",
		"warning_letters":      "警告信",
		"risk_extreme":         "极高",
		"risk_high":            "高",
		"risk_medium":          "中等",
		"risk_low":             "低",
		"event_speeding":       "超速",
		"event_harsh_brake":    "急刹车",
		"event_harsh_accel":    "急加速",
		"event_idle":           "怠速",
		"event_geofence":       "越界",
		"no_data":              "所选筛选条件下没有数据",
		"page":                 "页",
	}},
}

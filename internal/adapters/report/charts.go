package report

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/minehaul/fleetsafety/internal/domain/aggregate"
	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// Chart canvas in pixels; embedded into the PDF scaled to page width.
const (
	chartWidth  = 640
	chartHeight = 320

	chartMarginLeft   = 48
	chartMarginRight  = 16
	chartMarginTop    = 32
	chartMarginBottom = 48
)

type rgb struct{ r, g, b float64 }

var (
	barColor   = rgb{0.17, 0.35, 0.62}
	axisColor  = rgb{0.25, 0.25, 0.25}
	gridColor  = rgb{0.88, 0.88, 0.88}
	labelColor = rgb{0.10, 0.10, 0.10}

	riskColors = map[model.RiskLevel]rgb{
		model.RiskExtreme: {0.77, 0.12, 0.12},
		model.RiskHigh:    {0.92, 0.49, 0.13},
		model.RiskMedium:  {0.95, 0.77, 0.06},
		model.RiskLow:     {0.22, 0.60, 0.29},
	}
)

func newChart(title string) *gg.Context {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(labelColor.r, labelColor.g, labelColor.b)
	dc.DrawStringAnchored(title, chartWidth/2, 14, 0.5, 0.5)
	return dc
}

func plotFrame(dc *gg.Context, maxVal float64) (plotW, plotH float64) {
	plotW = float64(chartWidth - chartMarginLeft - chartMarginRight)
	plotH = float64(chartHeight - chartMarginTop - chartMarginBottom)

	dc.SetRGB(gridColor.r, gridColor.g, gridColor.b)
	for i := 1; i <= 4; i++ {
		y := float64(chartMarginTop) + plotH*float64(i)/4
		dc.DrawLine(chartMarginLeft, y, chartMarginLeft+plotW, y)
		dc.Stroke()
	}

	dc.SetRGB(axisColor.r, axisColor.g, axisColor.b)
	dc.DrawLine(chartMarginLeft, chartMarginTop, chartMarginLeft, float64(chartMarginTop)+plotH)
	dc.DrawLine(chartMarginLeft, float64(chartMarginTop)+plotH, chartMarginLeft+plotW, float64(chartMarginTop)+plotH)
	dc.Stroke()

	dc.SetRGB(labelColor.r, labelColor.g, labelColor.b)
	for i := 0; i <= 4; i++ {
		v := maxVal * float64(4-i) / 4
		y := float64(chartMarginTop) + plotH*float64(i)/4
		dc.DrawStringAnchored(fmt.Sprintf("%.0f", v), chartMarginLeft-6, y, 1, 0.5)
	}
	return plotW, plotH
}

// barChartPNG renders the buckets as a vertical bar chart. Labels longer
// than the slot are truncated rather than overlapped.
func barChartPNG(title string, buckets []aggregate.Bucket) ([]byte, error) {
	dc := newChart(title)

	maxVal := 1.0
	for _, b := range buckets {
		if float64(b.Count) > maxVal {
			maxVal = float64(b.Count)
		}
	}
	plotW, plotH := plotFrame(dc, maxVal)

	n := len(buckets)
	if n == 0 {
		return encodeChart(dc)
	}
	slot := plotW / float64(n)
	barW := slot * 0.6

	for i, b := range buckets {
		h := plotH * float64(b.Count) / maxVal
		x := float64(chartMarginLeft) + slot*float64(i) + (slot-barW)/2
		y := float64(chartMarginTop) + plotH - h

		dc.SetRGB(barColor.r, barColor.g, barColor.b)
		dc.DrawRectangle(x, y, barW, h)
		dc.Fill()

		label := b.Label
		if label == "" {
			label = b.Key
		}
		maxChars := int(slot / 7)
		if r := []rune(label); maxChars > 2 && len(r) > maxChars {
			label = string(r[:maxChars-1]) + "."
		}
		dc.SetRGB(labelColor.r, labelColor.g, labelColor.b)
		dc.DrawStringAnchored(label, x+barW/2, float64(chartHeight-chartMarginBottom)+14, 0.5, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%d", b.Count), x+barW/2, y-8, 0.5, 0.5)
	}

	return encodeChart(dc)
}

// trendChartPNG renders the daily trend as bars stacked by risk level.
func trendChartPNG(title string, points []aggregate.TrendPoint) ([]byte, error) {
	dc := newChart(title)

	maxVal := 1.0
	for _, p := range points {
		if float64(p.Total) > maxVal {
			maxVal = float64(p.Total)
		}
	}
	plotW, plotH := plotFrame(dc, maxVal)

	n := len(points)
	if n == 0 {
		return encodeChart(dc)
	}
	slot := plotW / float64(n)
	barW := slot * 0.6

	order := []model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskHigh, model.RiskExtreme}
	for i, p := range points {
		x := float64(chartMarginLeft) + slot*float64(i) + (slot-barW)/2
		base := float64(chartMarginTop) + plotH
		for _, lvl := range order {
			c := p.Counts[lvl]
			if c == 0 {
				continue
			}
			h := plotH * float64(c) / maxVal
			col := riskColors[lvl]
			dc.SetRGB(col.r, col.g, col.b)
			dc.DrawRectangle(x, base-h, barW, h)
			dc.Fill()
			base -= h
		}
		if n <= 16 || i%2 == 0 {
			dc.SetRGB(labelColor.r, labelColor.g, labelColor.b)
			dc.DrawStringAnchored(p.Day.Format("01-02"), x+barW/2, float64(chartHeight-chartMarginBottom)+14, 0.5, 0.5)
		}
	}

	lx := float64(chartMarginLeft)
	for _, lvl := range order {
		col := riskColors[lvl]
		dc.SetRGB(col.r, col.g, col.b)
		dc.DrawRectangle(lx, float64(chartHeight)-16, 10, 10)
		dc.Fill()
		dc.SetRGB(labelColor.r, labelColor.g, labelColor.b)
		dc.DrawString(string(lvl), lx+14, float64(chartHeight)-7)
		lx += 14 + float64(len(lvl))*7 + 18
	}

	return encodeChart(dc)
}

func encodeChart(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

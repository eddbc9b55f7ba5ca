package web

import (
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/kalambet/fabula/internal/timeline"
)

const (
	chartWidth   = 960
	chartLeftPad = 140
	chartTopPad  = 30
	laneHeight   = 34
	barHeight    = 18
	minBarWidth  = 6
)

var lanePalette = []string{
	"#6c8ebf", "#82b366", "#d6b656", "#b85450", "#9673a6", "#d79b00",
}

// renderChartSVG draws the plottable spans as horizontal bars on a shared
// time axis, one lane per story. Events without a story share the
// "(no story)" lane.
func renderChartSVG(spans []timeline.Span) template.HTML {
	if len(spans) == 0 {
		return `<div class="empty">No datable events to plot. Give events a start date (YYYY, YYYY-MM, or YYYY-MM-DD).</div>`
	}

	minT, maxT := spans[0].Start, spans[0].End
	for _, sp := range spans {
		if sp.Start.Before(minT) {
			minT = sp.Start
		}
		if sp.End.After(maxT) {
			maxT = sp.End
		}
	}
	// A degenerate axis (single instant) still needs a nonzero range.
	if !maxT.After(minT) {
		maxT = minT.AddDate(1, 0, 0)
	}
	span := maxT.Sub(minT)

	xOf := func(t time.Time) float64 {
		frac := float64(t.Sub(minT)) / float64(span)
		return chartLeftPad + frac*(chartWidth-chartLeftPad-20)
	}

	// Lane per story, in order of first appearance.
	laneOf := map[string]int{}
	var lanes []string
	for _, sp := range spans {
		story := sp.Story
		if story == "" {
			story = "(no story)"
		}
		if _, ok := laneOf[story]; !ok {
			laneOf[story] = len(lanes)
			lanes = append(lanes, story)
		}
	}

	height := chartTopPad + len(lanes)*laneHeight + 40

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart" viewBox="0 0 %d %d" role="img" aria-label="Timeline chart">`, chartWidth, height)

	// Year ticks.
	for _, tick := range yearTicks(minT, maxT) {
		x := xOf(tick)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" class="tick"/>`,
			x, chartTopPad-10, x, height-30)
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" class="tickLabel">%d</text>`,
			x, height-12, tick.Year())
	}

	// Lane labels and separators.
	for i, story := range lanes {
		y := chartTopPad + i*laneHeight
		fmt.Fprintf(&b, `<text x="8" y="%d" class="laneLabel">%s</text>`,
			y+laneHeight/2+4, html.EscapeString(truncate(story, 18)))
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="laneLine"/>`,
			chartLeftPad, y+laneHeight, chartWidth-20, y+laneHeight)
	}

	for _, sp := range spans {
		story := sp.Story
		if story == "" {
			story = "(no story)"
		}
		lane := laneOf[story]
		x := xOf(sp.Start)
		w := xOf(sp.End) - x
		if w < minBarWidth {
			w = minBarWidth
		}
		y := chartTopPad + lane*laneHeight + (laneHeight-barHeight)/2
		color := lanePalette[lane%len(lanePalette)]

		fmt.Fprintf(&b, `<rect x="%.1f" y="%d" width="%.1f" height="%d" rx="3" fill="%s"><title>%s</title></rect>`,
			x, y, w, barHeight, color, html.EscapeString(sp.Title))
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" class="barLabel">%s</text>`,
			x+w+6, y+barHeight-4, html.EscapeString(truncate(sp.Title, 28)))
	}

	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

// yearTicks picks at most ten evenly spaced year boundaries across the axis.
func yearTicks(minT, maxT time.Time) []time.Time {
	first := minT.Year()
	last := maxT.Year() + 1
	step := 1
	for (last-first)/step > 10 {
		step *= 2
	}

	var ticks []time.Time
	for y := first; y <= last; y += step {
		ticks = append(ticks, time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	return ticks
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

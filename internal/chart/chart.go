// Package chart renders the live dual-axis view of the series state: a bar
// series of calories burned per day overlaid with a line series of
// high-activity minutes on a secondary axis.
package chart

import (
	"bytes"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"example.com/ourastream/internal/series"
)

const pageTitle = "Calories Burned by Day with High Activity Time"

// refreshTag makes the browser poll the latest rendered snapshot. The chart
// itself is rebuilt server-side on every aggregator append.
var refreshTag = []byte(`<head><meta http-equiv="refresh" content="2">`)

// Option configures optional behaviour for Live.
type Option func(*Live)

// WithLogger overrides the logger used to report render failures.
func WithLogger(logger *log.Logger) Option {
	return func(l *Live) {
		l.logger = logger
	}
}

// Live keeps the most recently rendered chart page and serves it over HTTP.
// It implements the consumer's Observer: every append triggers a full redraw
// from the snapshot, so rendering is idempotent given the same series state.
type Live struct {
	mu     sync.RWMutex
	page   []byte
	logger *log.Logger
}

// NewLive constructs an empty Live view.
func NewLive(opts ...Option) *Live {
	l := &Live{
		logger: log.New(log.Writer(), "[chart] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SeriesUpdated redraws the whole page from the snapshot and swaps it in.
func (l *Live) SeriesUpdated(snap series.Snapshot) {
	start := time.Now()

	var buf bytes.Buffer
	if err := renderPage(&buf, snap); err != nil {
		l.logger.Printf("render error: %v", err)
		return
	}
	page := bytes.Replace(buf.Bytes(), []byte("<head>"), refreshTag, 1)

	l.mu.Lock()
	l.page = page
	l.mu.Unlock()

	observeRender(time.Since(start))
}

// Handler serves the latest rendered page.
func (l *Live) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		l.mu.RLock()
		page := l.page
		l.mu.RUnlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if len(page) == 0 {
			_, _ = w.Write([]byte(`<html><head><meta http-equiv="refresh" content="2"></head><body>waiting for the first record...</body></html>`))
			return
		}
		_, _ = w.Write(page)
	})
}

func renderPage(buf *bytes.Buffer, snap series.Snapshot) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		// Fixed ChartID keeps the rendered page deterministic for a given
		// snapshot; the default is randomised per render.
		charts.WithInitializationOpts(opts.Initialization{PageTitle: pageTitle, ChartID: "activity"}),
		charts.WithTitleOpts(opts.Title{Title: pageTitle}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Left: "right"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Days",
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Rotate: 45},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Calories Burned (kcal)"}),
	)
	bar.ExtendYAxis(opts.YAxis{Name: "High Activity Time (mins)", Type: "value"})

	bar.SetXAxis(snap.Days).AddSeries("Calories Burned", barData(snap.Calories))

	line := charts.NewLine()
	line.SetXAxis(snap.Days).AddSeries(
		"High Activity Time",
		lineData(snap.Activity),
		charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
	)
	bar.Overlap(line)

	return bar.Render(buf)
}

// barData keeps nil values nil so a missing reading shows up as a gap, not a
// zero-height bar.
func barData(values []*int) []opts.BarData {
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		if v != nil {
			data[i].Value = *v
		}
	}
	return data
}

func lineData(values []*int) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		if v != nil {
			data[i].Value = *v
		}
	}
	return data
}

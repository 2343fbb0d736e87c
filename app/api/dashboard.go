package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/dataset"
)

const dashboardSyncLimit = 30

// AdminDashboard renders recent sync item counts and the published dataset
// per source as an HTML page of charts.
func (h *Handler) AdminDashboard(c *gin.Context) {
	var runs []database.SyncRun
	if h.runs != nil {
		recent, err := h.runs.Recent(dashboardSyncLimit)
		if err != nil {
			slog.Error("Database error", "operation", "recent_syncs", "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		runs = recent
	}

	items, err := h.dataset.Read()
	if err != nil {
		slog.Error("Failed to read published dataset", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := syncChart(runs).Render(&buf); err != nil {
		slog.Error("Chart rendering error", "chart", "syncs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if err := sourceChart(items).Render(&buf); err != nil {
		slog.Error("Chart rendering error", "chart", "sources", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// syncChart plots item counts of recent runs, oldest first.
func syncChart(runs []database.SyncRun) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "FlipNews", Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Sync Item Counts"}),
	)

	x := make([]string, 0, len(runs))
	values := make([]opts.LineData, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		x = append(x, run.StartedAt.In(time.Local).Format("01-02 15:04"))
		values = append(values, opts.LineData{Name: run.Status, Value: run.ItemCount})
	}

	line.SetXAxis(x).AddSeries("Items", values)
	return line
}

func sourceChart(items []dataset.NewsItem) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "FlipNews", Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Published Items per Source"}),
	)

	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Source]++
	}

	sources := make([]string, 0, len(counts))
	for source := range counts {
		sources = append(sources, source)
	}
	slices.Sort(sources)

	values := make([]opts.BarData, 0, len(sources))
	for _, source := range sources {
		values = append(values, opts.BarData{Value: counts[source]})
	}

	bar.SetXAxis(sources).AddSeries("Items", values)
	return bar
}

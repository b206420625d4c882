package report

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lunaria-health/innerweather/internal/impute"
	"github.com/lunaria-health/innerweather/internal/pipeline"
	"github.com/lunaria-health/innerweather/internal/schema"
)

// writeCharts renders the QA chart page: imputed fraction per column and mean
// sensor coverage per study day.
func writeCharts(path string, summary Summary, res *pipeline.Result) error {
	page := components.NewPage()
	page.AddCharts(imputationBar(summary), coverageLine(res))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("failed to render report charts: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func imputationBar(summary Summary) *charts.Bar {
	rows := append([]impute.Stats(nil), summary.Imputation...)
	sort.Slice(rows, func(a, b int) bool { return rows[a].Fraction > rows[b].Fraction })
	if len(rows) > 30 {
		rows = rows[:30]
	}

	x := make([]string, len(rows))
	y := make([]opts.BarData, len(rows))
	for i, st := range rows {
		x[i] = st.Column
		y[i] = opts.BarData{Value: st.Fraction}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Imputed fraction per column", Subtitle: "run " + summary.RunID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("imputed", y)
	return bar
}

func coverageLine(res *pipeline.Result) *charts.Line {
	dayCol := res.Final.Column("day_in_study")
	byDay := make(map[float64][]float64)
	for _, countCol := range schema.CountColumns {
		cov := res.Final.Column(schema.CoverageColumnFor(countCol))
		if cov == nil {
			continue
		}
		for i := 0; i < cov.Len(); i++ {
			d, dok := dayCol.Float(i)
			v, vok := cov.Float(i)
			if dok && vok {
				byDay[d] = append(byDay[d], v)
			}
		}
	}

	days := make([]float64, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Float64s(days)

	x := make([]string, len(days))
	y := make([]opts.LineData, len(days))
	span := float64(schema.StudyDayMax - schema.StudyDayMin)
	for i, d := range days {
		vals := byDay[d]
		var sum float64
		for _, v := range vals {
			sum += v
		}
		x[i] = fmt.Sprintf("%d", int(float64(schema.StudyDayMin)+d*span))
		y[i] = opts.LineData{Value: sum / float64(len(vals))}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean sensor coverage by study day"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).AddSeries("coverage", y)
	return line
}

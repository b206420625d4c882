package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lunaria-health/innerweather/internal/pipeline"
	"github.com/lunaria-health/innerweather/internal/schema"
)

// writeZScoreHistogram saves a histogram of every z-scored value in the final
// table. A healthy normalization pass centres near 0 with unit-ish spread;
// anything else points at a baseline problem worth investigating.
func writeZScoreHistogram(path string, res *pipeline.Result) error {
	var values plotter.Values
	for _, name := range schema.ContinuousPersonalColumns {
		c := res.Final.Column(name)
		if c == nil {
			continue
		}
		values = append(values, c.NonNull()...)
	}
	if len(values) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = "Z-scored feature distribution"
	p.X.Label.Text = "z"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(values, 60)
	if err != nil {
		return fmt.Errorf("failed to build z-score histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

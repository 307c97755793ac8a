// Package charts draws one bar chart per prediction category.
package charts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"voice-insight/pkg/models"
)

var ErrInvalidID = errors.New("invalid chart set id")

const (
	// URLPrefix is the static-root relative prefix of every chart path.
	URLPrefix = "graphs"

	chartWidth  = 5 * vg.Inch
	chartHeight = 3 * vg.Inch
	barWidth    = 28
)

// Renderer writes chart PNGs below a graph directory, one sub-directory
// per analysis, so concurrent renders never share files.
type Renderer struct {
	graphDir string
}

func NewRenderer(graphDir string) *Renderer {
	return &Renderer{graphDir: graphDir}
}

// Dir is the directory that holds the chart set for id.
func (r *Renderer) Dir(id string) string {
	return filepath.Join(r.graphDir, id)
}

// Render draws all four categories of p and returns their relative paths.
func (r *Renderer) Render(ctx context.Context, id string, p models.PredictionResult) (models.ChartSet, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := os.MkdirAll(r.Dir(id), 0755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}

	set := make(models.ChartSet, len(models.Categories))
	for _, cat := range models.Categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := string(cat) + ".png"
		if err := drawCategory(cat, p.Label(cat), filepath.Join(r.Dir(id), name)); err != nil {
			return nil, fmt.Errorf("render %s chart: %w", cat, err)
		}
		set[cat] = path.Join(URLPrefix, id, name)
	}
	return set, nil
}

// barValues is 1 for the chosen label and 0 for the rest.
func barValues(cat models.Category, chosen string) plotter.Values {
	labels := cat.Labels()
	values := make(plotter.Values, len(labels))
	for i, l := range labels {
		if l == chosen {
			values[i] = 1
		}
	}
	return values
}

func drawCategory(cat models.Category, chosen, dst string) error {
	p := plot.New()
	p.Title.Text = cat.Title()
	p.Y.Label.Text = "Probability"
	p.Y.Min = 0
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(barValues(cat, chosen), vg.Points(barWidth))
	if err != nil {
		return err
	}
	bars.Color = cat.Color()
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(cat.Labels()...)

	return p.Save(chartWidth, chartHeight, dst)
}

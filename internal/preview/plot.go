package preview

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotDepths saves a chart of slice depth against ordered index. A regular
// series plots as a straight line; gaps and duplicates show as kinks and
// flat steps.
func PlotDepths(path string, depths []float64) error {
	if len(depths) == 0 {
		return fmt.Errorf("no depths to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Slice depth along normal (%d slices)", len(depths))
	p.X.Label.Text = "Ordered slice"
	p.Y.Label.Text = "Depth (mm)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(depths))
	for i, d := range depths {
		pts[i] = plotter.XY{X: float64(i), Y: d}
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("create depth line: %w", err)
	}
	line.Color = color.RGBA{R: 40, G: 90, B: 160, A: 255}
	line.Width = vg.Points(1)
	points.Color = line.Color
	points.Radius = vg.Points(2)
	p.Add(line, points)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save depth plot: %w", err)
	}
	return nil
}

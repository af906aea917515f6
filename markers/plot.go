package markers

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoMarkers is returned when there is nothing to render.
var ErrNoMarkers = errors.New("no markers to render")

// RenderTopDown draws the markers projected onto the XY plane of their frame and saves the plot to path.
// The image format follows the file extension. Arrows are drawn from tail to tip, shapes as a dot at their center.
func RenderTopDown(ms []*Marker, title, path string) error {
	if len(ms) == 0 {
		return ErrNoMarkers
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"
	p.Add(plotter.NewGrid())

	for _, m := range ms {
		c := m.Color.RGBA()
		// faint markers still need to show up on white
		if c.A < 64 {
			c.A = 64
		}
		center := m.Pose.Point()
		if m.Type == Arrow {
			tip := ArrowTip(m)
			line, err := plotter.NewLine(plotter.XYs{{X: center.X, Y: center.Y}, {X: tip.X, Y: tip.Y}})
			if err != nil {
				return errors.Wrap(err, "cannot plot arrow")
			}
			line.Color = c
			line.Width = vg.Points(1.5)
			head, err := plotter.NewScatter(plotter.XYs{{X: tip.X, Y: tip.Y}})
			if err != nil {
				return errors.Wrap(err, "cannot plot arrow")
			}
			head.GlyphStyle.Color = c
			head.GlyphStyle.Shape = draw.TriangleGlyph{}
			head.GlyphStyle.Radius = vg.Points(2.5)
			p.Add(line, head)
			continue
		}
		dot, err := plotter.NewScatter(plotter.XYs{{X: center.X, Y: center.Y}})
		if err != nil {
			return errors.Wrap(err, "cannot plot marker")
		}
		dot.GlyphStyle.Color = c
		dot.GlyphStyle.Shape = draw.CircleGlyph{}
		dot.GlyphStyle.Radius = vg.Points(2)
		p.Add(dot)
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "cannot save plot to %q", path)
	}
	return nil
}

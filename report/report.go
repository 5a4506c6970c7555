// Package report renders training diagnostics with gonum/plot.
package report

import (
	"math"

	"github.com/YuminosukeSato/gdlinreg/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Default image size of SaveLossCurve.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// LossCurve plots one point per epoch: x is the 1-based epoch, y the average loss.
func LossCurve(history []float64, title string) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, errors.NewValueError("report.LossCurve", "empty loss history")
	}

	pts := make(plotter.XYs, len(history))
	for i, loss := range history {
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return nil, errors.NewNumericalInstabilityError("report.LossCurve", []float64{loss}, i+1)
		}
		pts[i].X = float64(i + 1)
		pts[i].Y = loss
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "loss"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "report.LossCurve")
	}
	p.Add(line)
	return p, nil
}

// SaveLossCurve writes the loss curve to path. The image format follows the
// file extension (png, svg, pdf, ...).
func SaveLossCurve(history []float64, title, path string) error {
	p, err := LossCurve(history, title)
	if err != nil {
		return err
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return errors.Wrapf(err, "save loss curve to %s", path)
	}
	return nil
}

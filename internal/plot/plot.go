// Package plot renders the precharge envelope for a configured circuit:
// capacitor voltage and inrush current against time, with the timing
// window and the 90% point marked.
package plot

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/sweeney/precharge-sequencer/internal/precharge"
	"github.com/sweeney/precharge-sequencer/internal/sequencer"
)

const samples = 240

var (
	curveColor  = color.RGBA{R: 0x2b, G: 0x6c, B: 0xb0, A: 0xff}
	markerColor = color.RGBA{R: 0xb0, G: 0x2b, B: 0x2b, A: 0xff}
	levelColor  = color.RGBA{R: 0x3a, G: 0x8a, B: 0x3a, A: 0xff}
)

// Curves samples the ideal RC charging law for the configured circuit
// over [0, horizon] seconds.
func Curves(cfg precharge.Config, horizon float64) (voltage, current plotter.XYs) {
	voltage = make(plotter.XYs, samples)
	current = make(plotter.XYs, samples)
	for i := 0; i < samples; i++ {
		t := horizon * float64(i) / float64(samples-1)
		voltage[i].X = t
		voltage[i].Y = precharge.VoltageAtTime(cfg.BusVoltageV, cfg.ResistorOhm, cfg.CapacitanceF, t)
		current[i].X = t
		current[i].Y = precharge.InrushAtTime(cfg.BusVoltageV, cfg.ResistorOhm, cfg.CapacitanceF, t)
	}
	return voltage, current
}

// Render writes a PNG with the voltage and current curves stacked, the
// precharge window and t90 marked on both. The path must end in .png.
func Render(cfg precharge.Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("plot: %w", err)
	}

	tau := cfg.ResistorOhm * cfg.CapacitanceF
	t90 := precharge.TimeToFraction(cfg.ResistorOhm, cfg.CapacitanceF, 0.9)
	horizon := 1.2 * cfg.MaxPrechargeS
	if h := 5 * tau; h > horizon {
		horizon = h
	}

	voltage, current := Curves(cfg, horizon)

	vp, err := newPanel("Capacitor Voltage", "V", voltage)
	if err != nil {
		return err
	}
	addHLine(vp, sequencer.CloseFraction*cfg.BusVoltageV, horizon, "close threshold")
	addMarkers(vp, cfg, t90, cfg.BusVoltageV)

	ip, err := newPanel("Inrush Current", "A", current)
	if err != nil {
		return err
	}
	peak := cfg.BusVoltageV / cfg.ResistorOhm
	if cfg.InrushLimitA > 0 {
		addHLine(ip, cfg.InrushLimitA, horizon, "inrush limit")
	}
	addMarkers(ip, cfg, t90, peak)
	ip.X.Label.Text = "t (s)"

	img := vgimg.New(16*vg.Centimeter, 20*vg.Centimeter)
	dc := draw.New(img)
	canvases := plot.Align([][]*plot.Plot{{vp}, {ip}}, draw.Tiles{Rows: 2, Cols: 1}, dc)
	vp.Draw(canvases[0][0])
	ip.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	return nil
}

func newPanel(title, unit string, pts plotter.XYs) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = unit
	p.X.Min = 0

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = curveColor
	p.Add(plotter.NewGrid(), line)
	return p, nil
}

// addMarkers draws dashed verticals at the ends of the precharge window
// and at the 90% charge time.
func addMarkers(p *plot.Plot, cfg precharge.Config, t90, top float64) {
	for _, m := range []struct {
		t    float64
		name string
	}{
		{cfg.MinPrechargeS, "t_min"},
		{t90, "t90"},
		{cfg.MaxPrechargeS, "t_max"},
	} {
		v := vline(m.t, top)
		p.Add(v)
		p.Legend.Add(m.name, v)
	}
	p.Legend.Top = false
}

func vline(x, top float64) *plotter.Line {
	l, _ := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: top}})
	l.LineStyle.Color = markerColor
	l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	return l
}

func addHLine(p *plot.Plot, y, horizon float64, name string) {
	l, _ := plotter.NewLine(plotter.XYs{{X: 0, Y: y}, {X: horizon, Y: y}})
	l.LineStyle.Color = levelColor
	l.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(l)
	p.Legend.Add(name, l)
}

package plot

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sweeney/precharge-sequencer/internal/precharge"
)

func testCircuit() precharge.Config {
	return precharge.Config{
		ResistorOhm:   16.0,
		CapacitanceF:  0.01,
		BusVoltageV:   48.0,
		MinPrechargeS: 0.05,
		MaxPrechargeS: 1.0,
		InrushLimitA:  3.0,
	}
}

func TestCurves(t *testing.T) {
	cfg := testCircuit()
	voltage, current := Curves(cfg, 1.0)

	if len(voltage) != samples || len(current) != samples {
		t.Fatalf("sample counts = %d/%d", len(voltage), len(current))
	}
	if voltage[0].Y != 0 {
		t.Errorf("V(0) = %g, want 0", voltage[0].Y)
	}
	if got, want := current[0].Y, 48.0/16.0; got != want {
		t.Errorf("I(0) = %g, want %g", got, want)
	}
	// At t = tau the voltage sits at V·(1−1/e).
	tau := cfg.ResistorOhm * cfg.CapacitanceF
	var atTau float64
	for _, p := range voltage {
		if math.Abs(p.X-tau) < 1.0/float64(samples) {
			atTau = p.Y
			break
		}
	}
	want := 48.0 * (1 - math.Exp(-1))
	if math.Abs(atTau-want) > 0.5 {
		t.Errorf("V(tau) = %g, want ≈%g", atTau, want)
	}
	// Monotone charge, decaying current.
	for i := 1; i < samples; i++ {
		if voltage[i].Y < voltage[i-1].Y {
			t.Fatalf("voltage not monotone at %d", i)
		}
		if current[i].Y > current[i-1].Y {
			t.Fatalf("current not decaying at %d", i)
		}
	}
}

func TestRenderWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "envelope.png")

	if err := Render(testCircuit(), path); err != nil {
		t.Fatalf("Render: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderRejectsInvalidCircuit(t *testing.T) {
	cfg := testCircuit()
	cfg.ResistorOhm = -1

	path := filepath.Join(t.TempDir(), "bad.png")
	if err := Render(cfg, path); err == nil {
		t.Error("expected error for invalid circuit")
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("no file should be written on error")
	}
}

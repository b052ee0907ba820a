//go:build linux

package signal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSource reads sense and emergency-open from Linux GPIO lines and
// the capacitor voltage from an IIO ADC sysfs channel.
type GPIOSource struct {
	chip      *gpiocdev.Chip
	senseLine *gpiocdev.Line
	estopLine *gpiocdev.Line
	adcPath   string
	adcScale  float64
	now       func() time.Time
}

// NewGPIOSource requests the sense and emergency-open lines as inputs
// and binds the ADC channel file (e.g.
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw). adcScale converts
// raw ADC counts to bus volts, including any divider ratio.
func NewGPIOSource(sensePin, estopPin int, adcPath string, adcScale float64) (*GPIOSource, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Request lines as input with pull-down so an unplugged harness
	// reads as sense-deasserted rather than floating.
	senseLine, err := chip.RequestLine(sensePin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sense pin %d: %w", sensePin, err)
	}

	estopLine, err := chip.RequestLine(estopPin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		senseLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request estop pin %d: %w", estopPin, err)
	}

	if _, err := os.Stat(adcPath); err != nil {
		estopLine.Close()
		senseLine.Close()
		chip.Close()
		return nil, fmt.Errorf("adc channel %s: %w", adcPath, err)
	}

	return &GPIOSource{
		chip:      chip,
		senseLine: senseLine,
		estopLine: estopLine,
		adcPath:   adcPath,
		adcScale:  adcScale,
		now:       time.Now,
	}, nil
}

// Sample reads both lines and the ADC channel.
func (g *GPIOSource) Sample() (Reading, error) {
	senseRaw, err := g.senseLine.Value()
	if err != nil {
		return Reading{}, fmt.Errorf("read sense pin: %w", err)
	}
	estopRaw, err := g.estopLine.Value()
	if err != nil {
		return Reading{}, fmt.Errorf("read estop pin: %w", err)
	}

	data, err := os.ReadFile(g.adcPath)
	if err != nil {
		return Reading{}, fmt.Errorf("read adc: %w", err)
	}
	raw, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("parse adc value: %w", err)
	}

	return Reading{
		ContactSense:  senseRaw == 1,
		EmergencyOpen: estopRaw == 1,
		CapVoltage:    raw * g.adcScale,
		At:            g.now(),
	}, nil
}

// Close releases GPIO resources. Lines are reconfigured to input with
// pull-down before closing so external interface hardware sees boot
// defaults across a daemon restart.
func (g *GPIOSource) Close() error {
	var errs []error

	for _, line := range []*gpiocdev.Line{g.senseLine, g.estopLine} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

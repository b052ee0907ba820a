//go:build linux

package contactor

import (
	"fmt"
	"log"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultMainPin is the GPIO line offset (BCM numbering) for the main
// contactor coil driver.
const DefaultMainPin = 21

// GPIO drives the main contactor coil through a Linux GPIO output line.
// Write failures are logged and latched for supervision; they never
// propagate into the sequencer.
type GPIO struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	mu      sync.Mutex
	lastErr error
}

// NewGPIO requests the coil line as an output, initially de-energized.
func NewGPIO(mainPin int) (*GPIO, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(mainPin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request main pin %d: %w", mainPin, err)
	}

	return &GPIO{chip: chip, line: line}, nil
}

// CloseMain energizes the coil.
func (g *GPIO) CloseMain() {
	g.set(1, "close main")
}

// OpenMain de-energizes the coil.
func (g *GPIO) OpenMain() {
	g.set(0, "open main")
}

func (g *GPIO) set(value int, op string) {
	if err := g.line.SetValue(value); err != nil {
		log.Printf("contactor: %s: %v", op, err)
		g.mu.Lock()
		g.lastErr = fmt.Errorf("%s: %w", op, err)
		g.mu.Unlock()
	}
}

// LastErr returns the most recent coil drive error, or nil.
func (g *GPIO) LastErr() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Shutdown de-energizes the coil and releases GPIO resources. The coil
// must end de-energized so the contactor falls open when the daemon
// stops.
func (g *GPIO) Shutdown() error {
	var errs []error

	if g.line != nil {
		if err := g.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("de-energize coil: %w", err))
		}
		if err := g.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

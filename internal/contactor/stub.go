//go:build !linux

package contactor

import "errors"

// GPIO is not available on non-Linux platforms.
type GPIO struct{}

// NewGPIO returns an error on non-Linux platforms.
func NewGPIO(mainPin int) (*GPIO, error) {
	return nil, errors.New("contactor: gpio driver not supported on this platform (requires Linux)")
}

// CloseMain is not implemented on non-Linux platforms.
func (g *GPIO) CloseMain() {}

// OpenMain is not implemented on non-Linux platforms.
func (g *GPIO) OpenMain() {}

// LastErr is not implemented on non-Linux platforms.
func (g *GPIO) LastErr() error { return nil }

// Shutdown is not implemented on non-Linux platforms.
func (g *GPIO) Shutdown() error { return nil }

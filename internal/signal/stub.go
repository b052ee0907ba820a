//go:build !linux

package signal

import "errors"

// GPIOSource is not available on non-Linux platforms.
type GPIOSource struct{}

// NewGPIOSource returns an error on non-Linux platforms.
func NewGPIOSource(sensePin, estopPin int, adcPath string, adcScale float64) (*GPIOSource, error) {
	return nil, errors.New("signal: gpio source not supported on this platform (requires Linux)")
}

// Sample is not implemented on non-Linux platforms.
func (g *GPIOSource) Sample() (Reading, error) {
	return Reading{}, errors.New("signal: gpio source not supported")
}

// Close is not implemented on non-Linux platforms.
func (g *GPIOSource) Close() error {
	return nil
}

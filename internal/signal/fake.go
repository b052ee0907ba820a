package signal

import "errors"

// FakeSource is a test double that returns scripted readings.
type FakeSource struct {
	// Readings contains scripted samples to return.
	// Each call to Sample() consumes the next reading.
	Readings []Reading

	// index tracks current position in Readings
	index int

	// Closed tracks if Close was called
	Closed bool

	// SampleError, if set, will be returned by Sample()
	SampleError error
}

// NewFakeSource creates a FakeSource with the given readings.
func NewFakeSource(readings []Reading) *FakeSource {
	return &FakeSource{Readings: readings}
}

// Sample returns the next scripted reading.
// If readings are exhausted, returns the last reading repeatedly.
func (f *FakeSource) Sample() (Reading, error) {
	if f.SampleError != nil {
		return Reading{}, f.SampleError
	}

	if len(f.Readings) == 0 {
		return Reading{}, errors.New("no readings configured")
	}

	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the source to the beginning of its script.
func (f *FakeSource) Reset() {
	f.index = 0
	f.Closed = false
}

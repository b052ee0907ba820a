// Package contactor drives the main contactor coil. Implementations
// satisfy sequencer.Driver; the real one toggles a Linux GPIO output,
// the fake records calls for tests. Driver methods cannot fail the
// control path, so hardware errors are logged and latched here instead
// of propagating into the state machine.
package contactor

import "sync"

// Fake records contactor operations for test assertions.
type Fake struct {
	mu     sync.Mutex
	closes int
	opens  int
	calls  []string
}

// NewFake creates a Fake driver.
func NewFake() *Fake {
	return &Fake{}
}

// CloseMain records a close command.
func (f *Fake) CloseMain() {
	f.mu.Lock()
	f.closes++
	f.calls = append(f.calls, "close")
	f.mu.Unlock()
}

// OpenMain records an open command.
func (f *Fake) OpenMain() {
	f.mu.Lock()
	f.opens++
	f.calls = append(f.calls, "open")
	f.mu.Unlock()
}

// Closes returns how many times CloseMain was called.
func (f *Fake) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// Opens returns how many times OpenMain was called.
func (f *Fake) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// Calls returns the operations in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Reset clears recorded operations.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.closes = 0
	f.opens = 0
	f.calls = nil
	f.mu.Unlock()
}

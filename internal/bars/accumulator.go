package bars

import (
	"strings"
	"sync"
)

// Accumulator collects a streamed response chunk by chunk. It is safe for
// concurrent use: one goroutine may write while others read bars.
type Accumulator struct {
	filter Filter

	mu  sync.RWMutex
	buf strings.Builder
}

// NewAccumulator returns an empty accumulator that selects bars with f.
func NewAccumulator(f Filter) *Accumulator {
	return &Accumulator{filter: f}
}

// Write appends a chunk. It never fails.
func (a *Accumulator) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.Write(p)
}

// WriteString appends a chunk. It never fails.
func (a *Accumulator) WriteString(s string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.WriteString(s)
}

// Text returns everything received so far.
func (a *Accumulator) Text() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.buf.String()
}

// Len returns the number of bytes received so far.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.buf.Len()
}

// Bars filters everything received so far, including a trailing line that
// may still be growing.
func (a *Accumulator) Bars() []string {
	return a.filter.Apply(a.Text())
}

// SettledBars filters only newline-terminated lines, so a bar is never
// reported before it is complete.
func (a *Accumulator) SettledBars() []string {
	text := a.Text()
	i := strings.LastIndexByte(text, '\n')
	if i < 0 {
		return nil
	}
	return a.filter.Apply(text[:i])
}

// Equal reports whether two bar lists are identical.
func Equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

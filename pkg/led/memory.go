package led

import (
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/color"
)

// MemoryOutput records every colour it is given.
type MemoryOutput struct {
	mu      sync.Mutex
	history []color.RGB

	// Err, when set, is returned by SetColor. The colour is not recorded.
	Err error
}

var _ Output = (*MemoryOutput)(nil)

func (m *MemoryOutput) SetColor(c color.RGB) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.history = append(m.history, c)
	return nil
}

// History returns every colour set so far.
func (m *MemoryOutput) History() []color.RGB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]color.RGB(nil), m.history...)
}

// Last returns the colour currently shown.
func (m *MemoryOutput) Last() color.RGB {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return color.Black
	}
	return m.history[len(m.history)-1]
}

// Reset clears the history.
func (m *MemoryOutput) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
}

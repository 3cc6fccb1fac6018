package ripple

// IntSignal wraps Signal[int] with convenience methods for integer
// operations.
type IntSignal struct {
	*Signal[int]
}

// NewIntSignal creates a new IntSignal with the given initial value.
func NewIntSignal(initial int) *IntSignal {
	return &IntSignal{NewSignal(initial)}
}

// Inc increments the value by 1.
func (s *IntSignal) Inc() {
	s.Update(func(n int) int { return n + 1 })
}

// Dec decrements the value by 1.
func (s *IntSignal) Dec() {
	s.Update(func(n int) int { return n - 1 })
}

// Add adds the given value.
func (s *IntSignal) Add(n int) {
	s.Update(func(v int) int { return v + n })
}

// Sub subtracts the given value.
func (s *IntSignal) Sub(n int) {
	s.Update(func(v int) int { return v - n })
}

// Int64Signal wraps Signal[int64] with convenience methods for integer
// operations.
type Int64Signal struct {
	*Signal[int64]
}

// NewInt64Signal creates a new Int64Signal with the given initial value.
func NewInt64Signal(initial int64) *Int64Signal {
	return &Int64Signal{NewSignal(initial)}
}

// Inc increments the value by 1.
func (s *Int64Signal) Inc() {
	s.Update(func(n int64) int64 { return n + 1 })
}

// Dec decrements the value by 1.
func (s *Int64Signal) Dec() {
	s.Update(func(n int64) int64 { return n - 1 })
}

// Add adds the given value.
func (s *Int64Signal) Add(n int64) {
	s.Update(func(v int64) int64 { return v + n })
}

package concurrent

import "sync"

// Slice is an append-only list guarded by a mutex. Values leave it in bulk
// through Drain.
type Slice[V any] struct {
	mu     sync.Mutex
	values []V
}

func NewSlice[V any]() *Slice[V] {
	return &Slice[V]{}
}

// AppendBounded adds value unless the slice already holds limit values. It
// returns the new length and whether value was added.
func (s *Slice[V]) AppendBounded(value V, limit int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) >= limit {
		return len(s.values), false
	}
	s.values = append(s.values, value)
	return len(s.values), true
}

// Drain removes and returns every value in insertion order. Appends that
// happen after Drain takes the lock stay for the next call.
func (s *Slice[V]) Drain() []V {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.values
	s.values = nil
	return drained
}

func (s *Slice[V]) Length() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.values)
}


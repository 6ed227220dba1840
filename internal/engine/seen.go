package engine

const defaultSeenCapacity = 10_000

// seenSet is a bounded set of processed event identifiers with FIFO
// eviction. It keeps duplicate deliveries across the two channels from
// double-counting unread messages.
type seenSet struct {
	max int
	m   map[string]struct{}
	q   []string
}

func newSeenSet(max int) *seenSet {
	if max <= 0 {
		max = defaultSeenCapacity
	}
	return &seenSet{
		max: max,
		m:   make(map[string]struct{}, max),
	}
}

func (s *seenSet) has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.m[id]
	return ok
}

func (s *seenSet) add(id string) {
	if s == nil || id == "" {
		return
	}
	if _, ok := s.m[id]; ok {
		return
	}
	s.m[id] = struct{}{}
	s.q = append(s.q, id)
	for len(s.q) > s.max {
		evict := s.q[0]
		s.q = s.q[1:]
		delete(s.m, evict)
	}
}

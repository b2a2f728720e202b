package tagscan

// Set is an insertion-ordered set of package names.
type Set struct {
	names []string
	index map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{index: make(map[string]struct{})}
}

// Add inserts name and reports whether it was not already present.
func (s *Set) Add(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Contains reports whether name is in the set.
func (s *Set) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of names in the set.
func (s *Set) Len() int {
	return len(s.names)
}

// Names returns a copy of the names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

package generic

// Void is a zero-size value for use as a map value or channel element.
type Void = struct{}

func NewVoid() Void {
	return Void{}
}

// Set is an unordered collection of unique comparable items.
type Set[T comparable] map[T]Void

func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add returns true if the item was not already present.
func (s Set[T]) Add(item T) bool {
	if _, found := s[item]; found {
		return false
	}
	s[item] = NewVoid()
	return true
}

// Contains returns true only if every item is present.
func (s Set[T]) Contains(items ...T) bool {
	for _, item := range items {
		if _, found := s[item]; !found {
			return false
		}
	}
	return true
}

package gen

import "strconv"

// stem hands out numbered variants of a base name that are not yet taken.
// The namespace is shared between stems so all allocated names stay unique.
type stem struct {
	taken map[string]struct{}
	base  string
	last  int
}

func newStem(base string, taken map[string]struct{}) *stem {
	return &stem{taken: taken, base: base}
}

func (s *stem) next() string {
	for {
		s.last++
		name := s.base + strconv.Itoa(s.last)

		if _, ok := s.taken[name]; !ok {
			s.taken[name] = struct{}{}
			return name
		}
	}
}

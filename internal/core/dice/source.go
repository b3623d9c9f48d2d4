package dice

import (
	"fmt"
	"math/rand"
	"sync"
)

// Source draws uniformly distributed integers in [0, n).
//
// *math/rand.Rand satisfies Source, which keeps production rolls seeded and
// reproducible while tests can substitute fixed faces.
type Source interface {
	Intn(n int) int
}

// NewSource returns a seeded source that is safe for concurrent use.
func NewSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Sequence is a Source that yields predetermined die faces in order.
// Faces are 1-based; Intn returns face-1. It panics when exhausted or when a
// face does not fit the requested die, which surfaces broken test fixtures
// immediately.
type Sequence struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewSequence builds a Sequence over the given faces.
func NewSequence(faces ...int) *Sequence {
	return &Sequence{faces: append([]int(nil), faces...)}
}

// Intn returns the next predetermined face minus one.
func (s *Sequence) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.faces) {
		panic("dice: sequence exhausted")
	}
	face := s.faces[s.next]
	s.next++
	if face < 1 || face > n {
		panic(fmt.Sprintf("dice: face %d out of range for d%d", face, n))
	}
	return face - 1
}

// Remaining reports how many faces have not been drawn yet.
func (s *Sequence) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.faces) - s.next
}

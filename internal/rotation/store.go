package rotation

import (
	"math/rand/v2"
	"sync"

	appErr "github.com/xxxsen/bookbot/internal/pkg/errors"
)

// Store walks a frozen, shuffled seed sequence. The sequence is shared
// between clones; each clone owns its own cursor.
type Store struct {
	mu     sync.Mutex
	seeds  []string
	cursor int
}

// Build copies curated, shuffles it once and freezes the order.
func Build(curated []string, rnd *rand.Rand) *Store {
	seeds := make([]string, len(curated))
	copy(seeds, curated)
	if rnd == nil {
		rand.Shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })
	} else {
		rnd.Shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })
	}
	return &Store{seeds: seeds}
}

// Clone returns a store over the same sequence with its cursor at zero.
func (s *Store) Clone() *Store {
	return &Store{seeds: s.seeds}
}

func (s *Store) Len() int {
	return len(s.seeds)
}

func (s *Store) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Next returns the seed under the cursor without moving it.
func (s *Store) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seeds) == 0 {
		return "", appErr.ErrEmptySequence
	}
	return s.seeds[s.cursor], nil
}

// Advance moves the cursor forward by one, wrapping at the end.
func (s *Store) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seeds) == 0 {
		return
	}
	s.cursor = (s.cursor + 1) % len(s.seeds)
}

// Take returns the seed under the cursor and advances past it.
func (s *Store) Take() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seeds) == 0 {
		return "", appErr.ErrEmptySequence
	}
	seed := s.seeds[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.seeds)
	return seed, nil
}

// Random picks a seed uniformly at random and leaves the cursor alone.
func (s *Store) Random(rnd *rand.Rand) (string, error) {
	if len(s.seeds) == 0 {
		return "", appErr.ErrEmptySequence
	}
	if rnd == nil {
		return s.seeds[rand.IntN(len(s.seeds))], nil
	}
	return s.seeds[rnd.IntN(len(s.seeds))], nil
}

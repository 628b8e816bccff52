package correlation

import (
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
)

// IDSet tracks the correlation ids minted during one generation run so that
// Generate never hands out the same id twice within that run. Safe for
// concurrent use.
type IDSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewIDSet() *IDSet {
	return &IDSet{ids: make(map[string]struct{})}
}

// Generate mints a 4-hex-char id not yet present in the set, records it,
// and returns it. Collisions retry internally.
func (s *IDSet) Generate() string {
	for {
		u := uuid.New()
		id := hex.EncodeToString(u[:])[:4]

		s.mu.Lock()
		if _, taken := s.ids[id]; !taken {
			s.ids[id] = struct{}{}
			s.mu.Unlock()
			return id
		}
		s.mu.Unlock()
	}
}

// Add records an externally minted id. It returns false when the id was
// already present.
func (s *IDSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.ids[id]; taken {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *IDSet) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, taken := s.ids[id]
	return taken
}

func (s *IDSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

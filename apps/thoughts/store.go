package thoughts

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/casualjim/stdinbridge/pkg/uuidx"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MaxContentLength is the longest thought, in characters, a store accepts.
const MaxContentLength = 140

// ErrEmpty is returned by Random when no thought was recorded yet.
var ErrEmpty = errors.New("no thoughts recorded")

// Thought is a recorded line of wisdom.
type Thought struct {
	ID        uuid.UUID       `json:"id"`
	Content   string          `json:"content"`
	CreatedAt strfmt.DateTime `json:"created_at"`
}

func (t Thought) String() string { return t.Content }

// Store persists thoughts. Implementations may block.
type Store interface {
	Count() (int, error)
	Random() (Thought, error)
	Add(content string) (Thought, error)
}

// MemoryStore keeps thoughts in insertion order in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	thoughts *orderedmap.OrderedMap[string, Thought]
}

// NewMemoryStore creates a store holding the given thoughts.
func NewMemoryStore(seed ...string) (*MemoryStore, error) {
	s := &MemoryStore{thoughts: orderedmap.New[string, Thought]()}
	for _, content := range seed {
		if _, err := s.Add(content); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thoughts.Len(), nil
}

func (s *MemoryStore) Random() (Thought, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.thoughts.Len()
	if n == 0 {
		return Thought{}, ErrEmpty
	}
	pair := s.thoughts.Oldest()
	for range rand.IntN(n) {
		pair = pair.Next()
	}
	return pair.Value, nil
}

func (s *MemoryStore) Add(content string) (Thought, error) {
	if l := utf8.RuneCountInString(content); l > MaxContentLength {
		return Thought{}, fmt.Errorf("thought has %d characters, the limit is %d", l, MaxContentLength)
	}

	t := Thought{
		ID:        uuidx.New(),
		Content:   content,
		CreatedAt: strfmt.DateTime(time.Now()),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.thoughts.Set(t.ID.String(), t)
	return t, nil
}

// All returns every thought in the order it was recorded.
func (s *MemoryStore) All() []Thought {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Thought, 0, s.thoughts.Len())
	for pair := s.thoughts.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

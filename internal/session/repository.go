package session

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Repository stores one Session per connection identity. Entries expire
// on their own so sessions of connections that never said goodbye do not
// accumulate.
type Repository struct {
	cache       *cache.Cache
	maxTurns    int
	maxFeedback int
}

func NewRepository(maxTurns, maxFeedback int) *Repository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &Repository{
		cache:       c,
		maxTurns:    maxTurns,
		maxFeedback: maxFeedback,
	}
}

// GetOrCreate returns the session for a connection id, creating it on
// first use.
func (r *Repository) GetOrCreate(id string) *Session {
	if x, found := r.cache.Get(id); found {
		return x.(*Session)
	}
	s := New(id, r.maxTurns, r.maxFeedback)
	r.cache.Set(id, s, cache.DefaultExpiration)
	return s
}

func (r *Repository) Get(id string) (*Session, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*Session), true
	}
	return nil, false
}

func (r *Repository) Delete(id string) {
	r.cache.Delete(id)
}

package middleware

import (
	"net/http"
	"sync"

	"github.com/sakif/prompt-cards/internal/auth"
)

// KeyedMutex hands out one mutex per key and forgets it once nobody holds it.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the function that releases it.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size is the number of keys currently tracked.
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// SerializeProfile runs one request per browser profile at a time.
//
// A request loads the profile's blobs, mutates them and writes them back.
// Two tabs of one browser submitting at once would otherwise lose one of
// the writes. Requests of different profiles never wait on each other.
// Must run after auth.Profile.
func SerializeProfile(locks *KeyedMutex) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := auth.ProfileIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			unlock := locks.Lock(profile)
			defer unlock()
			next.ServeHTTP(w, r)
		})
	}
}

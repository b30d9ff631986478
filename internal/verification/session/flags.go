package session

import (
	"context"
	"sync"
)

// FlagSource reports whether a session's completion flag is raised.
type FlagSource interface {
	Completed(ctx context.Context, sessionID string) bool
}

// FlagFunc adapts a function to FlagSource.
type FlagFunc func(ctx context.Context, sessionID string) bool

func (f FlagFunc) Completed(ctx context.Context, sessionID string) bool {
	return f(ctx, sessionID)
}

// Flags holds per-session completion flags in process memory. Raising one
// session's flag never affects another.
type Flags struct {
	mu  sync.RWMutex
	set map[string]bool
}

func NewFlags() *Flags {
	return &Flags{set: make(map[string]bool)}
}

// Raise marks sessionID as completed.
func (f *Flags) Raise(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set[sessionID] = true
}

// Clear drops the flag for sessionID.
func (f *Flags) Clear(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.set, sessionID)
}

func (f *Flags) Completed(_ context.Context, sessionID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.set[sessionID]
}

// FetcherFlag raises the flag as soon as the backend has a record.
func FetcherFlag(fetcher RecordFetcher) FlagSource {
	return FlagFunc(func(ctx context.Context, sessionID string) bool {
		_, err := fetcher.Fetch(ctx, sessionID)
		return err == nil
	})
}

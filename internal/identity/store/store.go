// Package store holds the verification record stores. Every backend keeps
// read-your-write per key: a FindByKey after a successful Put with the same
// key returns that exact record.
package store

import (
	"context"
	"sort"

	"travelproof/internal/identity/models"
	"travelproof/pkg/platform/sentinel"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = sentinel.ErrNotFound

// RecordStore maps a session/user key to its latest verified identity record.
type RecordStore interface {
	// Put upserts record under key. Last write wins.
	Put(ctx context.Context, key string, record models.IdentityRecord) error
	// FindByKey is an exact key match.
	FindByKey(ctx context.Context, key string) (*models.IdentityRecord, error)
	// FindLatestBySubject returns the record with the greatest VerifiedAt for
	// subjectID. Ties go to the record inserted last.
	FindLatestBySubject(ctx context.Context, subjectID string) (*models.IdentityRecord, error)
	// Keys lists known keys, for debugging lookups that miss.
	Keys(ctx context.Context) ([]string, error)
}

// latest picks the authoritative record among candidates ordered by insertion.
func latest(candidates []models.IdentityRecord) *models.IdentityRecord {
	if len(candidates) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if !candidates[i].VerifiedAt.Before(candidates[best].VerifiedAt) {
			best = i
		}
	}
	rec := candidates[best]
	return &rec
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

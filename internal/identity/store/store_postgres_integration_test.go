//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"travelproof/internal/identity/store"
	"travelproof/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "identity_records"))
}

func (s *PostgresStoreSuite) TestReadYourWrite() {
	ctx := context.Background()
	rec := sampleRecord("session-1", "subject-1", time.Now().UTC().Truncate(time.Microsecond))

	s.Require().NoError(s.store.Put(ctx, "session-1", rec))

	found, err := s.store.FindByKey(ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(rec.ProofReference, found.ProofReference)
	s.Equal("Jane Doe", found.Attribute("name"))

	_, err = s.store.FindByKey(ctx, "missing")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLatestBySubject() {
	ctx := context.Background()
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Put(ctx, "later", sampleRecord("later", "alice", t1.Add(time.Second))))
	s.Require().NoError(s.store.Put(ctx, "earlier", sampleRecord("earlier", "alice", t1)))
	s.Require().NoError(s.store.Put(ctx, "tie-a", sampleRecord("tie-a", "bob", t1)))
	s.Require().NoError(s.store.Put(ctx, "tie-b", sampleRecord("tie-b", "bob", t1)))

	found, err := s.store.FindLatestBySubject(ctx, "alice")
	s.Require().NoError(err)
	s.Equal("later", found.SessionID)

	found, err = s.store.FindLatestBySubject(ctx, "bob")
	s.Require().NoError(err)
	s.Equal("tie-b", found.SessionID)
}

// Concurrent upserts on one key resolve to exactly one row.
func (s *PostgresStoreSuite) TestConcurrentUpsert() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.Put(ctx, "hot", sampleRecord("hot", "subject", time.Now())))
		}()
	}
	wg.Wait()

	keys, err := s.store.Keys(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"hot"}, keys)
}

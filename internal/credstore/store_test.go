package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"foodbridge/pkg/platform/sentinel"
)

// StoreSuite runs the Store contract against one backend.
type StoreSuite struct {
	suite.Suite
	store Store
	ctx   context.Context
}

func (s *StoreSuite) TestContract() {
	s.Run("missing key returns ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, "absent")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("set then get round-trips", func() {
		s.Require().NoError(s.store.Set(s.ctx, KeyAccessToken, "A1"))
		got, err := s.store.Get(s.ctx, KeyAccessToken)
		s.Require().NoError(err)
		s.Equal("A1", got)
	})

	s.Run("set overwrites", func() {
		s.Require().NoError(s.store.Set(s.ctx, KeyAccessToken, "A1"))
		s.Require().NoError(s.store.Set(s.ctx, KeyAccessToken, "A2"))
		got, err := s.store.Get(s.ctx, KeyAccessToken)
		s.Require().NoError(err)
		s.Equal("A2", got)
	})

	s.Run("remove clears the key", func() {
		s.Require().NoError(s.store.Set(s.ctx, KeyRefreshToken, "R1"))
		s.Require().NoError(s.store.Remove(s.ctx, KeyRefreshToken))
		_, err := s.store.Get(s.ctx, KeyRefreshToken)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("remove of missing key is not an error", func() {
		s.Require().NoError(s.store.Remove(s.ctx, "never-set"))
	})

	s.Run("keys are independent", func() {
		s.Require().NoError(s.store.Set(s.ctx, KeyAccessToken, "A1"))
		s.Require().NoError(s.store.Set(s.ctx, KeyRefreshToken, "R1"))
		s.Require().NoError(s.store.Remove(s.ctx, KeyAccessToken))
		got, err := s.store.Get(s.ctx, KeyRefreshToken)
		s.Require().NoError(err)
		s.Equal("R1", got)
	})
}

type MemoryStoreSuite struct{ StoreSuite }

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

type FileStoreSuite struct{ StoreSuite }

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

func (s *FileStoreSuite) SetupTest() {
	s.store = NewFileStore(filepath.Join(s.T().TempDir(), "credentials.json"))
	s.ctx = context.Background()
}

type RedisStoreSuite struct {
	StoreSuite
	mini *miniredis.Miniredis
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.T().Cleanup(func() { client.Close() })
	s.store = NewRedisStore(client)
	s.ctx = context.Background()
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")

	first := NewFileStore(path)
	require.NoError(t, first.Set(ctx, KeyAccessToken, "A1"))
	require.NoError(t, first.Set(ctx, KeyRefreshToken, "R1"))

	second := NewFileStore(path)
	got, err := second.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "R1", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreEmptyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	store := NewFileStore(path)
	_, err := store.Get(ctx, KeyAccessToken)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

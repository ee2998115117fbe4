package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "", zerolog.Nop()), mr
}

func TestStore_EmptyWhenNothingSaved(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	set, err := s.LoadParticipants(ctx)
	require.NoError(t, err)
	assert.Empty(t, set)

	m, err := s.LoadAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestStore_RoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

	set := participant.Set{
		1: {ID: 1, FullName: "Anna", Wishes: "tea", RegisteredAt: at},
		2: {ID: 2, FullName: "Boris", Wishes: "", RegisteredAt: at},
	}
	require.NoError(t, s.SaveParticipants(ctx, set))
	require.NoError(t, s.SaveAssignments(ctx, assignment.Mapping{1: 2, 2: 1}))

	got, err := s.LoadParticipants(ctx)
	require.NoError(t, err)
	assert.Equal(t, set, got)

	m, err := s.LoadAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, assignment.Mapping{1: 2, 2: 1}, m)

	raw, err := mr.Get("santa:assignments")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1": 2, "2": 1}`, raw)
}

func TestStore_CorruptSnapshotReadsAsEmpty(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("santa:participants", "not json"))

	set, err := s.LoadParticipants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestStore_ConnectionFailure(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.LoadParticipants(context.Background())
	require.Error(t, err)
	require.Error(t, s.SaveAssignments(context.Background(), assignment.Mapping{1: 2, 2: 1}))
}

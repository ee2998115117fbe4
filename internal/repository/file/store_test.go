package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)
	return s, dir
}

func TestStore_EmptyWhenNothingSaved(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	set, err := s.LoadParticipants(ctx)
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.NotNil(t, set)

	m, err := s.LoadAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.NotNil(t, m)
}

func TestStore_RoundTrip(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

	set := participant.Set{
		101: {ID: 101, Username: "anna", FullName: "Anna Ivanova", Group: "B-01", Room: "312", Wishes: "tea", RegisteredAt: at},
		202: {ID: 202, FirstName: "Boris", RegisteredAt: at.Add(time.Minute),
			Assigned: &participant.Assigned{ID: 101, FullName: "Anna Ivanova", Wishes: "tea", AssignedAt: at}},
	}
	require.NoError(t, s.SaveParticipants(ctx, set))
	require.NoError(t, s.SaveAssignments(ctx, assignment.Mapping{101: 202, 202: 101}))

	got, err := s.LoadParticipants(ctx)
	require.NoError(t, err)
	assert.Equal(t, set, got)

	m, err := s.LoadAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, assignment.Mapping{101: 202, 202: 101}, m)

	raw, err := os.ReadFile(filepath.Join(dir, ParticipantsFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"101": {`)
	assert.Contains(t, string(raw), `"full_name": "Anna Ivanova"`)

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStore_SaveReplacesWholeSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAssignments(ctx, assignment.Mapping{1: 2, 2: 3, 3: 1}))
	require.NoError(t, s.SaveAssignments(ctx, assignment.Mapping{1: 2, 2: 1}))

	m, err := s.LoadAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, assignment.Mapping{1: 2, 2: 1}, m)
}

func TestStore_CorruptFilesReadAsEmpty(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ParticipantsFile), []byte(`{"1": {"tg_id": 1,`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, AssignmentsFile), []byte(`{"1": "two"}`), 0o644))

	set, err := s.LoadParticipants(ctx)
	require.NoError(t, err)
	assert.Empty(t, set)

	m, err := s.LoadAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestStore_ReadsLegacyRecords(t *testing.T) {
	s, dir := newTestStore(t)
	legacy := `{
  "7": {"username": "kate", "first_name": "Kate", "last_name": null, "full_name": "Kate P", "group": "A1", "room": "5", "wishes": "", "registered_at": "2026-11-01T10:00:00Z"},
  "8": null
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ParticipantsFile), []byte(legacy), 0o644))

	set, err := s.LoadParticipants(context.Background())
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, int64(7), set[7].ID)
	assert.Equal(t, "Kate P", set[7].DisplayName())
}

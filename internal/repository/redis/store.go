package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
)

const (
	DefaultPrefix   = "santa"
	participantsKey = "participants"
	assignmentsKey  = "assignments"
)

// Store keeps participants and the current mapping as JSON documents under
// two Redis keys.
type Store struct {
	client goredis.UniversalClient
	prefix string
	logger zerolog.Logger
}

var _ participant.Repository = (*Store)(nil)

func NewStore(client goredis.UniversalClient, prefix string, logger zerolog.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, logger: logger}
}

func (s *Store) key(name string) string { return fmt.Sprintf("%s:%s", s.prefix, name) }

func (s *Store) LoadParticipants(ctx context.Context) (participant.Set, error) {
	set := participant.Set{}
	ok, err := s.get(ctx, participantsKey, &set)
	if err != nil {
		return nil, err
	}
	if !ok {
		return participant.Set{}, nil
	}
	for id, p := range set {
		if p == nil {
			delete(set, id)
			continue
		}
		if p.ID == 0 {
			p.ID = id
		}
	}
	return set, nil
}

func (s *Store) SaveParticipants(ctx context.Context, set participant.Set) error {
	if set == nil {
		set = participant.Set{}
	}
	return s.set(ctx, participantsKey, set)
}

func (s *Store) LoadAssignments(ctx context.Context) (assignment.Mapping, error) {
	m := assignment.Mapping{}
	ok, err := s.get(ctx, assignmentsKey, &m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return assignment.Mapping{}, nil
	}
	return m, nil
}

func (s *Store) SaveAssignments(ctx context.Context, m assignment.Mapping) error {
	if m == nil {
		m = assignment.Mapping{}
	}
	return s.set(ctx, assignmentsKey, m)
}

func (s *Store) get(ctx context.Context, name string, out any) (bool, error) {
	b, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", s.key(name), err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key(name)).Msg("Corrupt snapshot, treating as empty")
		return false, nil
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.client.Set(ctx, s.key(name), b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(name), err)
	}
	return nil
}

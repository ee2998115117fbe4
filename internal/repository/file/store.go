package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
)

const (
	ParticipantsFile = "users.json"
	AssignmentsFile  = "assignments.json"
)

// Store keeps participants and the current mapping as indented JSON files
// in a data directory.
type Store struct {
	dir    string
	mu     sync.Mutex
	logger zerolog.Logger
}

var _ participant.Repository = (*Store)(nil)

// NewStore creates the data directory if needed.
func NewStore(dir string, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty data dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) LoadParticipants(ctx context.Context) (participant.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := participant.Set{}
	ok, err := s.read(ParticipantsFile, &set)
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
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ParticipantsFile, set)
}

func (s *Store) LoadAssignments(ctx context.Context) (assignment.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := assignment.Mapping{}
	ok, err := s.read(AssignmentsFile, &m)
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
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(AssignmentsFile, m)
}

// read decodes name into out. It reports false when the file is missing,
// empty or corrupt; out must then be discarded.
func (s *Store) read(name string, out any) (bool, error) {
	path := filepath.Join(s.dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		s.logger.Warn().Err(err).Str("file", path).Msg("Corrupt data file, treating as empty")
		return false, nil
	}
	return true, nil
}

// write replaces name atomically via a temp file in the same directory.
func (s *Store) write(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

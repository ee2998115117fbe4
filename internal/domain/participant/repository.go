package participant

import (
	"context"

	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
)

// Repository persists the participant collection and the current
// assignment mapping as whole snapshots.
//
// LoadParticipants returns an empty Set when nothing has been stored yet or
// the stored document is unreadable; errors are reserved for I/O failures.
type Repository interface {
	LoadParticipants(ctx context.Context) (Set, error)
	SaveParticipants(ctx context.Context, set Set) error
	LoadAssignments(ctx context.Context) (assignment.Mapping, error)
	SaveAssignments(ctx context.Context, m assignment.Mapping) error
}

package distribution

import (
	apperrors "github.com/open-builders/secret-santa-bot/internal/common/errors"
)

// ErrRunInProgress is returned when a distribution is triggered while
// another one is still running.
var ErrRunInProgress = apperrors.New(apperrors.ErrCodeRunInProgress, "distribution already running")

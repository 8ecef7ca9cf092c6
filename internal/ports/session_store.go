package ports

import (
	"context"

	"github.com/bnema/rewards-cli/internal/domain"
)

// SessionStore keeps one session artifact per account email and device mode.
// Load returns domain.ErrSessionNotFound when nothing was saved yet.
type SessionStore interface {
	Load(ctx context.Context, email string, mode domain.DeviceMode) (domain.SessionState, error)
	Save(ctx context.Context, email string, mode domain.DeviceMode, state domain.SessionState) error
}

package ports

import (
	"context"

	"github.com/bnema/rewards-cli/internal/domain"
)

type Page interface {
	ID() string
}

type OpenRequest struct {
	Account domain.Account
	Mode    domain.DeviceMode
	State   domain.SessionState
}

type BrowserFactory interface {
	Open(ctx context.Context, req OpenRequest) (BrowserSession, error)
}

type BrowserSession interface {
	NewPage(ctx context.Context) (Page, error)
	Login(ctx context.Context, page Page, email, password string) error
	// AccessToken is only meaningful for desktop sessions.
	AccessToken(ctx context.Context, page Page, email string) (string, error)
	Dashboard(ctx context.Context, page Page) (domain.DashboardSnapshot, error)
	EarnablePoints(ctx context.Context, channel domain.Channel, accessToken string) (int, error)
	SearchProgress(ctx context.Context, page Page) (domain.SearchCounters, error)
	State(ctx context.Context) (domain.SessionState, error)
	Close(ctx context.Context) error
}

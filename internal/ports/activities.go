package ports

import (
	"context"

	"github.com/bnema/rewards-cli/internal/domain"
)

type ActivityRequest struct {
	Kind        domain.ActivityKind
	Mode        domain.DeviceMode
	Session     BrowserSession
	Page        Page
	Dashboard   domain.DashboardSnapshot
	AccessToken string
}

type ActivityRunner interface {
	Run(ctx context.Context, req ActivityRequest) error
}

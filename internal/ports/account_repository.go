package ports

import (
	"context"

	"github.com/bnema/rewards-cli/internal/domain"
)

type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Save(ctx context.Context, account domain.Account) error
	Delete(ctx context.Context, email string) error
}

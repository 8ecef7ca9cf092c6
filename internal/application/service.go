package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

const passwordKeyFormat = "rewards/%s/password"

func PasswordKey(email string) string {
	return fmt.Sprintf(passwordKeyFormat, strings.ToLower(strings.TrimSpace(email)))
}

type AccountService struct {
	repo  ports.AccountRepository
	store ports.SecretStore
}

func NewAccountService(repo ports.AccountRepository, store ports.SecretStore) *AccountService {
	return &AccountService{repo: repo, store: store}
}

// AddAccount upserts an account. An inline password is moved into the
// secret store and replaced by a reference.
func (s *AccountService) AddAccount(ctx context.Context, account domain.Account) error {
	account.Email = strings.TrimSpace(account.Email)

	previous, err := s.repo.GetByEmail(ctx, account.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("get account by email: %w", err)
		}
		previous = domain.Account{}
	}

	storedKey := ""
	if account.Password != "" {
		storedKey = PasswordKey(account.Email)
		if err := s.store.Put(ctx, storedKey, account.Password); err != nil {
			return fmt.Errorf("store account password: %w", err)
		}
		account.PasswordRef = storedKey
		account.Password = ""
	}

	if err := account.Validate(); err != nil {
		return s.rollbackSecret(ctx, storedKey, err)
	}

	if err := s.repo.Save(ctx, account); err != nil {
		return s.rollbackSecret(ctx, storedKey, fmt.Errorf("save account: %w", err))
	}

	if previous.PasswordRef != "" && previous.PasswordRef != account.PasswordRef {
		if err := s.store.Delete(ctx, previous.PasswordRef); err != nil {
			return fmt.Errorf("delete previous account password: %w", err)
		}
	}

	return nil
}

func (s *AccountService) rollbackSecret(ctx context.Context, key string, cause error) error {
	if key == "" {
		return cause
	}
	if rollbackErr := s.store.Delete(ctx, key); rollbackErr != nil {
		return fmt.Errorf("rollback stored password: %w", errors.Join(cause, rollbackErr))
	}

	return cause
}

func (s *AccountService) RemoveAccount(ctx context.Context, email string) error {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get account by email: %w", err)
	}

	if err := s.repo.Delete(ctx, email); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if account.PasswordRef == "" {
		return nil
	}
	if err := s.store.Delete(ctx, account.PasswordRef); err != nil {
		if restoreErr := s.repo.Save(ctx, account); restoreErr != nil {
			return fmt.Errorf("delete account password and restore account: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("delete account password: %w", err)
	}

	return nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, nil
}

// ResolveAccounts returns the accounts whose credentials could be loaded,
// in file order, along with the joined errors of those that could not.
func (s *AccountService) ResolveAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	resolved := make([]domain.Account, 0, len(accounts))
	var errs []error
	for _, account := range accounts {
		if err := account.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}

		if account.Password == "" {
			password, err := s.store.Get(ctx, account.PasswordRef)
			if err != nil {
				errs = append(errs, fmt.Errorf("account %q: load password: %w", account.Email, err))
				continue
			}
			account.Password = password
		}

		resolved = append(resolved, account)
	}

	return resolved, errors.Join(errs...)
}

package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/rewards-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/rewards-cli/internal/adapters/secrets/pass"
	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

// Store routes pass:// and file:// refs to their backend and tries primary
// then fallback for bare keys.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
	backends map[domain.SecretBackend]ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.SecretStore, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback, backends: map[domain.SecretBackend]ports.SecretStore{}}, nil
}

// NewPassFirstWithFileFallback is the default credential store: pass when it
// is installed, plain files under fileRoot otherwise.
func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	pass := passstore.NewStore()
	file := filestore.NewStore(fileRoot)

	store, err := NewStoreChecked(pass, file)
	if err != nil {
		return nil, err
	}
	store.backends[domain.SecretBackendPass] = pass
	store.backends[domain.SecretBackendFile] = file
	return store, nil
}

// Route pins refs with the given scheme to one backend.
func (s *Store) Route(backend domain.SecretBackend, store ports.SecretStore) {
	s.backends[backend] = store
}

func (s *Store) pinned(key string) (ports.SecretStore, bool) {
	backend, _ := domain.SplitSecretRef(key)
	if backend == domain.SecretBackendAny {
		return nil, false
	}

	store, ok := s.backends[backend]
	return store, ok
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if store, ok := s.pinned(key); ok {
		return store.Put(ctx, key, value)
	}

	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if store, ok := s.pinned(key); ok {
		return store.Get(ctx, key)
	}

	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}
	if errors.Is(err, domain.ErrSecretNotFound) && errors.Is(fallbackErr, domain.ErrSecretNotFound) {
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if store, ok := s.pinned(key); ok {
		return store.Delete(ctx, key)
	}

	err := s.primary.Delete(ctx, key)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

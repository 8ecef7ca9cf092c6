package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/rewards-cli/internal/adapters/session"
	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

const (
	storeDirMode   = 0o700
	stateFileMode  = 0o600
	tempFilePrefix = ".session-*.json.tmp"
)

// Store writes <root>/<email>/<mode>.json. Workers never share an account,
// so the mutex only guards goroutines within one process.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.SessionStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Load(ctx context.Context, email string, mode domain.DeviceMode) (domain.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionState{}, err
	}

	path, err := s.pathFor(email, mode)
	if err != nil {
		return domain.SessionState{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.SessionState{}, domain.ErrSessionNotFound
		}
		return domain.SessionState{}, fmt.Errorf("read session file: %w", err)
	}

	return session.Decode(data)
}

func (s *Store) Save(ctx context.Context, email string, mode domain.DeviceMode, state domain.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathFor(email, mode)
	if err != nil {
		return err
	}
	data, err := session.Encode(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, storeDirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePrefix)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	cleanup = false

	return nil
}

func (s *Store) pathFor(email string, mode domain.DeviceMode) (string, error) {
	key, err := session.Key(email, mode)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.root, filepath.FromSlash(key)+".json"), nil
}

package yaml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
	"gopkg.in/yaml.v3"
)

var ErrReadOnly = errors.New("yaml accounts source is read-only")

type accountEntry struct {
	Email       string      `yaml:"email"`
	Password    string      `yaml:"password,omitempty"`
	PasswordRef string      `yaml:"password_ref,omitempty"`
	Proxy       *proxyEntry `yaml:"proxy,omitempty"`
}

type proxyEntry struct {
	URL      string `yaml:"url"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// fileSchema accepts either a bare list of accounts or an {accounts: [...]}
// document.
type fileSchema struct {
	Accounts []accountEntry `yaml:"accounts"`
}

// Repository serves accounts from a hand-maintained YAML file. Edits go
// through the file itself, so Save and Delete are refused.
type Repository struct {
	path string
}

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := r.read()
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(entries))
	for _, entry := range entries {
		accounts = append(accounts, entry.toDomain())
	}

	return accounts, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	accounts, err := r.List(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	for _, account := range accounts {
		if strings.EqualFold(account.Email, strings.TrimSpace(email)) {
			return account, nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *Repository) Save(context.Context, domain.Account) error {
	return fmt.Errorf("save account to %s: %w", r.path, ErrReadOnly)
}

func (r *Repository) Delete(context.Context, string) error {
	return fmt.Errorf("delete account from %s: %w", r.path, ErrReadOnly)
}

func (r *Repository) read() ([]accountEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode accounts file: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var entries []accountEntry
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode accounts file: %w", err)
		}
		return entries, nil
	case yaml.MappingNode:
		var file fileSchema
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("decode accounts file: %w", err)
		}
		return file.Accounts, nil
	default:
		return nil, fmt.Errorf("decode accounts file: expected a list or an accounts key, got %s", root.Tag)
	}
}

func (e accountEntry) toDomain() domain.Account {
	account := domain.Account{
		Email:       strings.TrimSpace(e.Email),
		Password:    e.Password,
		PasswordRef: e.PasswordRef,
	}
	if e.Proxy != nil && e.Proxy.URL != "" {
		account.Proxy = &domain.Proxy{
			URL:      e.Proxy.URL,
			Port:     e.Proxy.Port,
			Username: e.Proxy.Username,
			Password: e.Proxy.Password,
		}
	}

	return account
}

package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

type page struct {
	id string
}

func (p page) ID() string {
	return p.id
}

// Session is one browser context held open by the service.
type Session struct {
	client *Client
	id     string
	mode   domain.DeviceMode
}

var _ ports.BrowserSession = (*Session)(nil)

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mode() domain.DeviceMode {
	return s.mode
}

func (s *Session) path(parts ...string) string {
	path := "/sessions/" + url.PathEscape(s.id)
	for _, part := range parts {
		path += "/" + url.PathEscape(part)
	}

	return path
}

func (s *Session) NewPage(ctx context.Context) (ports.Page, error) {
	var created idResponse
	if err := s.client.do(ctx, "open page", http.MethodPost, s.path("pages"), nil, struct{}{}, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, errors.New("open page: response missing id")
	}

	return page{id: created.ID}, nil
}

type loginRequest struct {
	PageID   string `json:"page_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Session) Login(ctx context.Context, p ports.Page, email, password string) error {
	err := s.client.do(ctx, "login", http.MethodPost, s.path("login"), nil, loginRequest{
		PageID:   pageID(p),
		Email:    email,
		Password: password,
	}, nil)

	var statusErr *StatusError
	if errors.As(err, &statusErr) && (statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	}

	return err
}

type tokenRequest struct {
	PageID string `json:"page_id"`
	Email  string `json:"email"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *Session) AccessToken(ctx context.Context, p ports.Page, email string) (string, error) {
	var token tokenResponse
	if err := s.client.do(ctx, "access token", http.MethodPost, s.path("token"), nil, tokenRequest{
		PageID: pageID(p),
		Email:  email,
	}, &token); err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

func (s *Session) Dashboard(ctx context.Context, p ports.Page) (domain.DashboardSnapshot, error) {
	var snapshot domain.DashboardSnapshot
	query := url.Values{"page_id": []string{pageID(p)}}
	if err := s.client.do(ctx, "dashboard", http.MethodGet, s.path("dashboard"), query, nil, &snapshot); err != nil {
		return domain.DashboardSnapshot{}, err
	}

	return snapshot, nil
}

type earnableResponse struct {
	Points int `json:"points"`
}

func (s *Session) EarnablePoints(ctx context.Context, channel domain.Channel, accessToken string) (int, error) {
	query := url.Values{"channel": []string{string(channel)}}
	if accessToken != "" {
		query.Set("token", accessToken)
	}

	var earnable earnableResponse
	op := "earnable points " + string(channel)
	if err := s.client.do(ctx, op, http.MethodGet, s.path("earnable"), query, nil, &earnable); err != nil {
		return 0, err
	}
	if earnable.Points < 0 {
		return 0, fmt.Errorf("%s: negative points %d", op, earnable.Points)
	}

	return earnable.Points, nil
}

func (s *Session) SearchProgress(ctx context.Context, p ports.Page) (domain.SearchCounters, error) {
	var counters domain.SearchCounters
	query := url.Values{"page_id": []string{pageID(p)}}
	if err := s.client.do(ctx, "search progress", http.MethodGet, s.path("search-progress"), query, nil, &counters); err != nil {
		return domain.SearchCounters{}, err
	}

	return counters, nil
}

func (s *Session) State(ctx context.Context) (domain.SessionState, error) {
	var state domain.SessionState
	if err := s.client.do(ctx, "session state", http.MethodGet, s.path("state"), nil, nil, &state); err != nil {
		return domain.SessionState{}, err
	}

	return state, nil
}

func (s *Session) Close(ctx context.Context) error {
	err := s.client.do(ctx, "close session", http.MethodDelete, s.path(), nil, nil, nil)

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return nil
	}

	return err
}

func pageID(p ports.Page) string {
	if p == nil {
		return ""
	}

	return p.ID()
}

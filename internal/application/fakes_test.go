package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

type fakePage string

func (p fakePage) ID() string {
	return string(p)
}

type sessionScript struct {
	loginErr     error
	dashboard    domain.DashboardSnapshot
	dashboardErr error
	earnable     domain.EarnablePoints
	earnableErr  error
}

// fakeBrowsers hands out scripted sessions and records every call in order.
type fakeBrowsers struct {
	mu      sync.Mutex
	desktop sessionScript
	mobile  sessionScript
	// mobileProgress is consumed one entry per SearchProgress call. Once empty,
	// searches report complete unless neverComplete is set.
	mobileProgress []domain.SearchCounters
	neverComplete  bool
	openErr        error
	opened         []ports.OpenRequest
	events         []string
}

func (f *fakeBrowsers) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf(format, args...))
}

func (f *fakeBrowsers) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

func (f *fakeBrowsers) Open(_ context.Context, req ports.OpenRequest) (ports.BrowserSession, error) {
	f.record("open:%s", req.Mode)
	if f.openErr != nil {
		return nil, f.openErr
	}

	f.mu.Lock()
	f.opened = append(f.opened, req)
	f.mu.Unlock()

	script := f.desktop
	if req.Mode.IsMobile() {
		script = f.mobile
	}
	return &fakeSession{owner: f, mode: req.Mode, script: script}, nil
}

func (f *fakeBrowsers) nextMobileProgress() domain.SearchCounters {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.mobileProgress) > 0 {
		next := f.mobileProgress[0]
		f.mobileProgress = f.mobileProgress[1:]
		return next
	}
	if f.neverComplete {
		return domain.SearchCounters{MobileSearch: []domain.SearchProgress{{Progress: 3, ProgressMax: 10}}}
	}
	return domain.SearchCounters{MobileSearch: []domain.SearchProgress{{Progress: 10, ProgressMax: 10}}}
}

type fakeSession struct {
	owner  *fakeBrowsers
	mode   domain.DeviceMode
	script sessionScript
	pages  int
}

func (s *fakeSession) NewPage(context.Context) (ports.Page, error) {
	s.pages++
	s.owner.record("page:%s", s.mode)
	return fakePage(fmt.Sprintf("%s-%d", s.mode, s.pages)), nil
}

func (s *fakeSession) Login(_ context.Context, _ ports.Page, _, _ string) error {
	s.owner.record("login:%s", s.mode)
	return s.script.loginErr
}

func (s *fakeSession) AccessToken(context.Context, ports.Page, string) (string, error) {
	return "token-" + s.mode.String(), nil
}

func (s *fakeSession) Dashboard(context.Context, ports.Page) (domain.DashboardSnapshot, error) {
	s.owner.record("dashboard:%s", s.mode)
	return s.script.dashboard, s.script.dashboardErr
}

func (s *fakeSession) EarnablePoints(_ context.Context, channel domain.Channel, _ string) (int, error) {
	s.owner.record("earnable:%s:%s", s.mode, channel)
	if s.script.earnableErr != nil {
		return 0, s.script.earnableErr
	}
	if channel == domain.ChannelApp {
		return s.script.earnable.App, nil
	}
	return s.script.earnable.Browser, nil
}

func (s *fakeSession) SearchProgress(context.Context, ports.Page) (domain.SearchCounters, error) {
	s.owner.record("progress:%s", s.mode)
	return s.owner.nextMobileProgress(), nil
}

func (s *fakeSession) State(context.Context) (domain.SessionState, error) {
	return domain.SessionState{UserAgent: "ua-" + s.mode.String()}, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.owner.record("close:%s", s.mode)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

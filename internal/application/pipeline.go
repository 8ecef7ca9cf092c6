package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

type PipelineConfig struct {
	Flags              domain.FeatureFlags
	MaxMobileRetries   int
	MobileRetryBackoff time.Duration
}

func PipelineConfigFromSettings(settings domain.Settings) PipelineConfig {
	return PipelineConfig{
		Flags:              settings.Flags,
		MaxMobileRetries:   settings.MaxMobileRetries,
		MobileRetryBackoff: settings.MobileRetryBackoff,
	}
}

// Pipeline runs the desktop then mobile phases for one account at a time.
type Pipeline struct {
	browsers   ports.BrowserFactory
	sessions   ports.SessionStore
	activities ports.ActivityRunner
	cfg        PipelineConfig
	clock      ports.Clock
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

func NewPipeline(browsers ports.BrowserFactory, sessions ports.SessionStore, activities ports.ActivityRunner, cfg PipelineConfig, clock ports.Clock, logger *slog.Logger) *Pipeline {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxMobileRetries < 0 {
		cfg.MaxMobileRetries = 0
	}

	return &Pipeline{
		browsers:   browsers,
		sessions:   sessions,
		activities: activities,
		cfg:        cfg,
		clock:      clock,
		sleep:      sleepContext,
		logger:     logger,
	}
}

func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	clone := *p
	clone.logger = logger
	return &clone
}

// accountRun is the state one RunAccount call owns: budget, desktop token
// and the result being built.
type accountRun struct {
	account     domain.Account
	budget      domain.PointsBudget
	accessToken string
	state       domain.AccountState
	result      AccountResult
	logger      *slog.Logger
}

func (r *accountRun) transition(state domain.AccountState) {
	r.state = state
	r.result.State = state
}

func (p *Pipeline) RunAccount(ctx context.Context, account domain.Account) (AccountResult, error) {
	run := &accountRun{
		account: account,
		state:   domain.StatePending,
		logger:  p.logger.With("email", account.Email),
		result: AccountResult{
			Email:     account.Email,
			State:     domain.StatePending,
			StartedAt: p.clock.Now(),
		},
	}

	err := p.runAccount(ctx, run)
	run.result.FinishedAt = p.clock.Now()
	if budget, budgetErr := run.budget.Value(); budgetErr == nil {
		run.result.Budget = budget
	}
	if err != nil {
		run.result.FailedIn = run.state
		run.result.State = domain.StateFailed
		run.result.Err = err
		run.result.Error = err.Error()
		return run.result, err
	}

	return run.result, nil
}

func (p *Pipeline) runAccount(ctx context.Context, run *accountRun) error {
	run.transition(domain.StateDesktopRunning)
	if err := p.desktop(ctx, run); err != nil {
		return fmt.Errorf("desktop phase: %w", err)
	}
	if run.state == domain.StateEarlyStop {
		return nil
	}

	if p.shouldStop(run.budget) {
		run.transition(domain.StateEarlyStop)
		run.logger.Info("Skipping mobile phase, no points left to earn", "scope", scopeMain)
		return nil
	}

	if err := p.mobile(ctx, run); err != nil {
		return fmt.Errorf("mobile phase: %w", err)
	}

	run.transition(domain.StateDone)
	return nil
}

func (p *Pipeline) shouldStop(budget domain.PointsBudget) bool {
	return !p.cfg.Flags.RunOnZeroPoints && budget.IsZero()
}

func (p *Pipeline) desktop(ctx context.Context, run *accountRun) error {
	phase, err := p.openPhase(ctx, run, domain.DeviceDesktop)
	if err != nil {
		return err
	}
	defer phase.discard(ctx)

	run.logger.Info("Starting DESKTOP browser", "scope", scopeMain)

	home, err := phase.session.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("open home page: %w", err)
	}
	if err := phase.session.Login(ctx, home, run.account.Email, run.account.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	token, err := phase.session.AccessToken(ctx, home, run.account.Email)
	if err != nil {
		return fmt.Errorf("get access token: %w", err)
	}
	run.accessToken = token

	dashboard, err := phase.session.Dashboard(ctx, home)
	if err != nil {
		return fmt.Errorf("fetch dashboard: %w", err)
	}
	run.logger.Info("Current point count", "scope", scopePoints, "points", dashboard.AvailablePoints)

	earnable, err := p.earnablePoints(ctx, phase.session, token)
	if err != nil {
		return err
	}
	run.budget.SetFromDesktop(earnable.Total())
	run.result.DesktopEarnable = earnable.Total()
	run.logger.Info("Points earnable today", "scope", scopePoints,
		"total", earnable.Total(), "browser", earnable.Browser, "app", earnable.App)

	if p.shouldStop(run.budget) {
		run.logger.Info("No points to earn and run_on_zero_points is off, stopping", "scope", scopeMain)
		run.transition(domain.StateEarlyStop)
		phase.persistAndClose(ctx)
		return nil
	}

	page, err := phase.session.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("open worker page: %w", err)
	}

	flags := p.cfg.Flags
	steps := []struct {
		kind    domain.ActivityKind
		enabled bool
	}{
		{domain.ActivityDailySet, flags.DoDailySet},
		{domain.ActivityMorePromotions, flags.DoMorePromotions},
		{domain.ActivityPunchCards, flags.DoPunchCards},
		{domain.ActivitySearch, flags.DoDesktopSearch},
	}
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		p.runActivity(ctx, run, ports.ActivityRequest{
			Kind:        step.kind,
			Mode:        domain.DeviceDesktop,
			Session:     phase.session,
			Page:        page,
			Dashboard:   dashboard,
			AccessToken: token,
		})
	}

	phase.persistAndClose(ctx)
	return nil
}

func (p *Pipeline) mobile(ctx context.Context, run *accountRun) error {
	for attempt := 0; ; attempt++ {
		run.result.MobileAttempts = attempt + 1

		retry, err := p.mobileAttempt(ctx, run, attempt < p.cfg.MaxMobileRetries)
		if err != nil {
			return err
		}
		if !retry {
			return nil
		}

		run.transition(domain.StateMobileRetry)
		run.logger.Warn("Unable to complete mobile searches, bad User-Agent? Retrying...",
			"scope", scopeMain, "attempt", attempt+1, "max_retries", p.cfg.MaxMobileRetries)
		if err := p.sleep(ctx, p.cfg.MobileRetryBackoff); err != nil {
			return fmt.Errorf("wait before mobile retry: %w", err)
		}
	}
}

// mobileAttempt runs one full mobile session. It reports true when the
// session was torn down so the caller can start a fresh one.
func (p *Pipeline) mobileAttempt(ctx context.Context, run *accountRun, canRetry bool) (bool, error) {
	run.transition(domain.StateMobileRunning)

	phase, err := p.openPhase(ctx, run, domain.DeviceMobile)
	if err != nil {
		return false, err
	}
	defer phase.discard(ctx)

	run.logger.Info("Starting MOBILE browser", "scope", scopeMain)

	home, err := phase.session.NewPage(ctx)
	if err != nil {
		return false, fmt.Errorf("open home page: %w", err)
	}
	if err := phase.session.Login(ctx, home, run.account.Email, run.account.Password); err != nil {
		return false, fmt.Errorf("login: %w", err)
	}

	dashboard, err := phase.session.Dashboard(ctx, home)
	if err != nil {
		return false, fmt.Errorf("fetch dashboard: %w", err)
	}

	flags := p.cfg.Flags
	request := ports.ActivityRequest{
		Mode:        domain.DeviceMobile,
		Session:     phase.session,
		Page:        home,
		Dashboard:   dashboard,
		AccessToken: run.accessToken,
	}
	if flags.DoDailyCheckIn {
		request.Kind = domain.ActivityDailyCheckIn
		p.runActivity(ctx, run, request)
	}
	if flags.DoReadToEarn {
		request.Kind = domain.ActivityReadToEarn
		p.runActivity(ctx, run, request)
	}

	if dashboard.HasMobileSearch() {
		page, err := phase.session.NewPage(ctx)
		if err != nil {
			return false, fmt.Errorf("open worker page: %w", err)
		}

		if flags.DoMobileSearch {
			request.Kind = domain.ActivitySearch
			request.Page = page
			p.runActivity(ctx, run, request)

			counters, err := phase.session.SearchProgress(ctx, page)
			if err != nil {
				return false, fmt.Errorf("fetch search progress: %w", err)
			}

			if flags.RetryMobileSearch && counters.MobileRemaining() > 0 {
				if canRetry {
					phase.persistAndClose(ctx)
					return true, nil
				}
				run.logger.Warn("Mobile search did not complete, giving up after retries",
					"scope", scopeMain, "remaining", counters.MobileRemaining(), "max_retries", p.cfg.MaxMobileRetries)
			}
		}
	} else {
		run.logger.Info("No mobile searches found", "scope", scopeMain)
	}

	earnable, err := p.earnablePoints(ctx, phase.session, run.accessToken)
	if err != nil {
		return false, err
	}
	run.budget.ApplyMobile(earnable.Total())
	run.result.MobileEarnable = earnable.Total()
	if budget, err := run.budget.Value(); err == nil {
		run.logger.Info("Points collected today", "scope", scopePoints, "budget", budget, "mobile_earnable", earnable.Total())
	}

	phase.persistAndClose(ctx)
	return false, nil
}

func (p *Pipeline) earnablePoints(ctx context.Context, session ports.BrowserSession, token string) (domain.EarnablePoints, error) {
	browser, err := session.EarnablePoints(ctx, domain.ChannelBrowser, token)
	if err != nil {
		return domain.EarnablePoints{}, fmt.Errorf("get browser earnable points: %w", err)
	}

	app, err := session.EarnablePoints(ctx, domain.ChannelApp, token)
	if err != nil {
		return domain.EarnablePoints{}, fmt.Errorf("get app earnable points: %w", err)
	}

	return domain.EarnablePoints{Browser: browser, App: app}, nil
}

func (p *Pipeline) runActivity(ctx context.Context, run *accountRun, req ports.ActivityRequest) {
	if err := p.activities.Run(ctx, req); err != nil {
		run.logger.Error("Activity failed, continuing", "scope", scopeMain,
			"phase", req.Mode.String(), "activity", string(req.Kind), "error", err)
		run.result.ActivityFailures = append(run.result.ActivityFailures, ActivityFailure{
			Kind:  req.Kind,
			Mode:  req.Mode,
			Error: err.Error(),
		})
	}
}

func (p *Pipeline) openPhase(ctx context.Context, run *accountRun, mode domain.DeviceMode) (*phaseSession, error) {
	state, err := p.sessions.Load(ctx, run.account.Email, mode)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			run.logger.Warn("Could not load session state, starting fresh", "scope", scopeMain, "phase", mode.String(), "error", err)
		}
		state = domain.SessionState{}
	}

	session, err := p.browsers.Open(ctx, ports.OpenRequest{Account: run.account, Mode: mode, State: state})
	if err != nil {
		return nil, fmt.Errorf("open %s browser: %w", mode, err)
	}

	return &phaseSession{
		session: session,
		store:   p.sessions,
		email:   run.account.Email,
		mode:    mode,
		logger:  run.logger,
	}, nil
}

// phaseSession ties one browser session to its persistence so the session
// is saved before it is closed and closed exactly once.
type phaseSession struct {
	session ports.BrowserSession
	store   ports.SessionStore
	email   string
	mode    domain.DeviceMode
	closed  bool
	logger  *slog.Logger
}

func (s *phaseSession) persistAndClose(ctx context.Context) {
	if s.closed {
		return
	}
	ctx = context.WithoutCancel(ctx)

	state, err := s.session.State(ctx)
	if err != nil {
		s.logger.Warn("Could not read session state", "scope", scopeMain, "phase", s.mode.String(), "error", err)
	} else if err := s.store.Save(ctx, s.email, s.mode, state); err != nil {
		s.logger.Warn("Could not persist session state", "scope", scopeMain, "phase", s.mode.String(), "error", err)
	}

	s.close(ctx)
}

// discard closes without persisting; a no-op after persistAndClose.
func (s *phaseSession) discard(ctx context.Context) {
	if s.closed {
		return
	}

	s.close(context.WithoutCancel(ctx))
}

func (s *phaseSession) close(ctx context.Context) {
	s.closed = true
	if err := s.session.Close(ctx); err != nil {
		s.logger.Warn("Could not close browser", "scope", scopeMain, "phase", s.mode.String(), "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

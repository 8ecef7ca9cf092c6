package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/rewards-cli/internal/application"
	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	// MaskEmails replaces the local part of each address, keeping the first rune.
	MaskEmails bool
}

// Run is the renderable view of one run: account results for single mode
// or a single worker, worker exits plus the results workers reported for the
// primary in cluster mode.
type Run struct {
	RunID   string
	Mode    application.DispatchMode
	Worker  int
	Results []application.AccountResult
	Workers int
	Exits   []ports.WorkerExit
}

func FromChunk(runID string, report application.ChunkReport) Run {
	return Run{RunID: runID, Mode: application.DispatchSingle, Worker: report.WorkerIndex, Results: report.Results}
}

func FromDispatch(report application.DispatchReport) Run {
	if report.Chunk != nil {
		return FromChunk(report.RunID, *report.Chunk)
	}

	run := Run{RunID: report.RunID, Mode: report.Mode}
	if report.Workers != nil {
		run.Workers = report.Workers.Workers
		run.Exits = report.Workers.Exits
		run.Results = report.Workers.Results()
	}

	return run
}

func renderView(run Run, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render(runTitle(run))}

	if run.Mode == application.DispatchCluster {
		lines = append(lines, workerLines(run, s)...)
		for _, result := range run.Results {
			lines = append(lines, s.section.Render(renderAccount(result, opts, s)))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	completed := 0
	for _, result := range run.Results {
		if result.State == domain.StateDone || result.State == domain.StateEarlyStop {
			completed++
		}
	}
	lines = append(lines, lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.header.Render(fmt.Sprintf("accounts: %d", len(run.Results))),
		" ",
		renderProgressBar(completed, len(run.Results), 24, s),
		" ",
		s.header.Render(fmt.Sprintf("%d completed", completed)),
	))

	if len(run.Results) == 0 {
		lines = append(lines, s.empty.Render("No accounts were processed."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, result := range run.Results {
		lines = append(lines, s.section.Render(renderAccount(result, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func runTitle(run Run) string {
	title := "Rewards run"
	if run.RunID != "" {
		title += " " + run.RunID
	}
	if run.Mode == application.DispatchCluster {
		return title + " (cluster)"
	}
	if run.Worker > 0 {
		return fmt.Sprintf("%s (worker %d)", title, run.Worker)
	}

	return title
}

func workerLines(run Run, s styles) []string {
	failed := 0
	for _, exit := range run.Exits {
		if exit.Code != 0 {
			failed++
		}
	}

	lines := []string{
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.header.Render(fmt.Sprintf("workers: %d", run.Workers)),
			" ",
			renderProgressBar(len(run.Exits)-failed, run.Workers, 24, s),
			" ",
			s.header.Render(fmt.Sprintf("%d failed", failed)),
		),
	}

	for _, exit := range run.Exits {
		line := fmt.Sprintf("worker %d (pid %d): exit %d", exit.Index, exit.PID, exit.Code)
		if exit.Code != 0 {
			lines = append(lines, s.failed.Render(line))
			continue
		}
		lines = append(lines, s.detail.Render(line))
	}

	return lines
}

func renderAccount(result application.AccountResult, opts RenderOptions, s styles) string {
	email := result.Email
	if opts.MaskEmails {
		email = domain.Account{Email: email}.MaskedEmail()
	}

	parts := []string{
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.account.Render("Account: "+email),
			" ",
			stateStyle(result.State, s).Render(stateLabel(result)),
		),
		s.detail.Render(pointsLine(result)),
	}

	if result.MobileAttempts > 1 {
		parts = append(parts, s.detail.Render(fmt.Sprintf("mobile search attempts: %d", result.MobileAttempts)))
	}
	if elapsed := elapsedLabel(result.StartedAt, result.FinishedAt); elapsed != "" {
		parts = append(parts, s.detail.Render("took "+elapsed))
	}
	for _, failure := range result.ActivityFailures {
		parts = append(parts, s.warning.Render(fmt.Sprintf("! %s %s: %s", failure.Mode, failure.Kind, failure.Error)))
	}
	if result.Error != "" {
		parts = append(parts, s.warning.Render("error: "+result.Error))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func stateLabel(result application.AccountResult) string {
	switch result.State {
	case domain.StateDone:
		return "done"
	case domain.StateEarlyStop:
		return "nothing to earn"
	case domain.StateFailed:
		if result.FailedIn != "" {
			return fmt.Sprintf("failed in %s", strings.ReplaceAll(string(result.FailedIn), "_", " "))
		}
		return "failed"
	default:
		return string(result.State)
	}
}

func stateStyle(state domain.AccountState, s styles) lipgloss.Style {
	switch state {
	case domain.StateDone:
		return s.done
	case domain.StateEarlyStop:
		return s.earlyStop
	case domain.StateFailed:
		return s.failed
	default:
		return s.detail
	}
}

func pointsLine(result application.AccountResult) string {
	line := fmt.Sprintf("desktop earnable: %d pts", result.DesktopEarnable)
	if result.State == domain.StateEarlyStop {
		return line
	}

	return fmt.Sprintf("%s  mobile earnable: %d pts  budget: %d pts",
		line, result.MobileEarnable, result.Budget)
}

func elapsedLabel(started, finished time.Time) string {
	if started.IsZero() || finished.IsZero() || finished.Before(started) {
		return ""
	}

	return finished.Sub(started).Round(time.Second).String()
}

func renderProgressBar(done, total, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := 0
	if total > 0 {
		filled = int(math.Round(float64(width) * float64(done) / float64(total)))
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

package application

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bnema/rewards-cli/internal/domain"
)

const (
	scopeMain    = "MAIN"
	scopePrimary = "MAIN-PRIMARY"
	scopeWorker  = "MAIN-WORKER"
	scopePoints  = "MAIN-POINTS"
)

type ActivityFailure struct {
	Kind  domain.ActivityKind
	Mode  domain.DeviceMode
	Error string
}

type AccountResult struct {
	Email            string
	State            domain.AccountState
	FailedIn         domain.AccountState `json:",omitempty"`
	DesktopEarnable  int
	MobileEarnable   int
	Budget           int
	MobileAttempts   int
	ActivityFailures []ActivityFailure `json:",omitempty"`
	Err              error             `json:"-"`
	Error            string            `json:",omitempty"`
	StartedAt        time.Time
	FinishedAt       time.Time
}

type ChunkReport struct {
	WorkerIndex int
	Results     []AccountResult
}

func (r ChunkReport) Completed() int {
	completed := 0
	for _, result := range r.Results {
		if result.State == domain.StateDone || result.State == domain.StateEarlyStop {
			completed++
		}
	}

	return completed
}

func (r ChunkReport) Failed() int {
	failed := 0
	for _, result := range r.Results {
		if result.State == domain.StateFailed {
			failed++
		}
	}

	return failed
}

// WriteJSON is how a worker hands its report back to the primary.
func (r ChunkReport) WriteJSON(w io.Writer) error {
	if r.Results == nil {
		r.Results = []AccountResult{}
	}
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("encode chunk report: %w", err)
	}
	return nil
}

func DecodeChunkReport(data []byte) (ChunkReport, error) {
	var report ChunkReport
	if err := json.Unmarshal(data, &report); err != nil {
		return ChunkReport{}, fmt.Errorf("decode chunk report: %w", err)
	}
	return report, nil
}

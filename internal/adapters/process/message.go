package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

const maxMessageBytes = 16 << 20

// message is what the primary writes to a worker's stdin. Resolved passwords
// travel here instead of argv or the environment.
type message struct {
	RunID string           `json:"run_id"`
	Index int              `json:"index"`
	Chunk []domain.Account `json:"chunk"`
}

func EncodeMessage(w io.Writer, spec ports.WorkerSpec) error {
	chunk := spec.Chunk
	if chunk == nil {
		chunk = []domain.Account{}
	}

	if err := json.NewEncoder(w).Encode(message{RunID: spec.RunID, Index: spec.Index, Chunk: chunk}); err != nil {
		return fmt.Errorf("encode worker message: %w", err)
	}
	return nil
}

// DecodeMessage reads the worker message from r until EOF.
func DecodeMessage(r io.Reader) (ports.WorkerSpec, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxMessageBytes))
	if err != nil {
		return ports.WorkerSpec{}, fmt.Errorf("read worker message: %w", err)
	}
	if len(data) == 0 {
		return ports.WorkerSpec{}, errors.New("read worker message: stdin is empty")
	}

	var decoded message
	if err := json.Unmarshal(data, &decoded); err != nil {
		return ports.WorkerSpec{}, fmt.Errorf("decode worker message: %w", err)
	}
	if decoded.RunID == "" {
		return ports.WorkerSpec{}, errors.New("decode worker message: run_id is required")
	}
	if decoded.Index < 0 {
		return ports.WorkerSpec{}, fmt.Errorf("decode worker message: invalid index %d", decoded.Index)
	}

	return ports.WorkerSpec{RunID: decoded.RunID, Index: decoded.Index, Chunk: decoded.Chunk}, nil
}

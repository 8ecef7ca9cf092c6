package process

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageCarriesChunkWithPasswords(t *testing.T) {
	t.Parallel()

	spec := ports.WorkerSpec{
		RunID: "run-1",
		Index: 2,
		Chunk: []domain.Account{
			{Email: "a@example.com", Password: "pw-a", Proxy: &domain.Proxy{URL: "http://proxy", Port: 3128}},
			{Email: "b@example.com", Password: "pw-b"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeMessage(&buf, spec))
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)

	decoded, err := DecodeMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, spec, decoded)
}

func TestEncodeMessageWritesEmptyChunkAsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, EncodeMessage(&buf, ports.WorkerSpec{RunID: "run-1", Index: 3}))
	assert.Contains(t, buf.String(), `"chunk":[]`)

	decoded, err := DecodeMessage(&buf)
	require.NoError(t, err)
	assert.Empty(t, decoded.Chunk)
	assert.Equal(t, 3, decoded.Index)
}

func TestDecodeMessageRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "stdin is empty"},
		{name: "garbage", input: "not json", wantErr: "decode worker message"},
		{name: "missing run id", input: `{"index":0,"chunk":[]}`, wantErr: "run_id is required"},
		{name: "negative index", input: `{"run_id":"r","index":-1}`, wantErr: "invalid index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

package session

import (
	"encoding/json"
	"testing"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	key, err := Key(" John@Example.com ", domain.DeviceMobile)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com/mobile", key)

	for _, email := range []string{"", "../etc@example.com", "a/b@example.com", `a\b@example.com`} {
		_, err := Key(email, domain.DeviceDesktop)
		assert.Error(t, err, email)
	}

	_, err = Key("john@example.com", domain.DeviceMode("tablet"))
	assert.ErrorContains(t, err, "unknown device mode")
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	require.ErrorContains(t, err, "decode session state")

	state, err := Decode([]byte(`{"cookies":[{"name":"MUID"}],"user_agent":"Mozilla/5.0"}`))
	require.NoError(t, err)
	assert.Equal(t, "Mozilla/5.0", state.UserAgent)
	assert.JSONEq(t, `[{"name":"MUID"}]`, string(state.Cookies))
	assert.Equal(t, json.RawMessage(`[{"name":"MUID"}]`), state.Cookies)
}

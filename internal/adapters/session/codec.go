package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/rewards-cli/internal/domain"
)

// Key is the backend-neutral name of one session artifact: <email>/<mode>.
func Key(email string, mode domain.DeviceMode) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("session email is empty")
	}
	if strings.ContainsAny(email, `/\`) || strings.Contains(email, "..") {
		return "", fmt.Errorf("invalid session email %q", email)
	}
	if _, err := domain.ParseDeviceMode(string(mode)); err != nil {
		return "", err
	}

	return email + "/" + mode.String(), nil
}

func Encode(state domain.SessionState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}

	return data, nil
}

func Decode(data []byte) (domain.SessionState, error) {
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("decode session state: %w", err)
	}

	return state, nil
}

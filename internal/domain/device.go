package domain

import (
	"encoding/json"
	"fmt"
)

type DeviceMode string

const (
	DeviceDesktop DeviceMode = "desktop"
	DeviceMobile  DeviceMode = "mobile"
)

func (m DeviceMode) IsMobile() bool {
	return m == DeviceMobile
}

func (m DeviceMode) String() string {
	return string(m)
}

func ParseDeviceMode(raw string) (DeviceMode, error) {
	switch DeviceMode(raw) {
	case DeviceDesktop, DeviceMobile:
		return DeviceMode(raw), nil
	default:
		return "", fmt.Errorf("unknown device mode %q", raw)
	}
}

// SessionState is the opaque browser artifact persisted per account and mode.
type SessionState struct {
	Cookies   json.RawMessage `json:"cookies,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
}

func (s SessionState) IsEmpty() bool {
	return len(s.Cookies) == 0 && s.UserAgent == ""
}

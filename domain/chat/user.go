package chat

import (
	"fmt"
	"strings"
)

// UserStatus is the presence a user shows to others. The zero value is
// StatusOffline, which is what a fresh account starts with.
type UserStatus int

const (
	StatusOffline UserStatus = iota
	StatusOnline
	StatusAway
	StatusBusy
)

func (s UserStatus) String() string {
	switch s {
	case StatusOffline:
		return "OFFLINE"
	case StatusOnline:
		return "ONLINE"
	case StatusAway:
		return "AWAY"
	case StatusBusy:
		return "BUSY"
	default:
		return fmt.Sprintf("UserStatus(%d)", int(s))
	}
}

// ParseUserStatus accepts the wire names, case-insensitive.
func ParseUserStatus(s string) (UserStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFFLINE":
		return StatusOffline, nil
	case "ONLINE":
		return StatusOnline, nil
	case "AWAY":
		return StatusAway, nil
	case "BUSY":
		return StatusBusy, nil
	default:
		return StatusOffline, fmt.Errorf("unknown user status %q", s)
	}
}

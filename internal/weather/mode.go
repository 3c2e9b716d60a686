package weather

import (
	"fmt"
	"strings"
)

// Mode selects how a Client refreshes its cache.
type Mode string

const (
	// ModeOnDemand fetches a location only when it is requested and its
	// cached entry is missing or stale.
	ModeOnDemand Mode = "on_demand"
	// ModePolling refreshes every stale cached location whenever any
	// location is requested.
	ModePolling Mode = "polling"
)

// ParseMode accepts "on_demand"/"polling" (case-insensitive, "-" allowed).
func ParseMode(s string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "on_demand", "ondemand":
		return ModeOnDemand, nil
	case "polling":
		return ModePolling, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

func (m Mode) String() string {
	return string(m)
}

package syncer

import (
	"fmt"
	"time"
)

// State is where the engine is in its cycle.
type State string

const (
	Idle    State = "idle"
	Syncing State = "syncing"
	Synced  State = "synced"
	Offline State = "offline"
	Error   State = "error"
	// LocalOnly means sync is switched off in configuration.
	LocalOnly State = "localOnly"
	// BackupUnavailable means the remote rejected this device's credentials
	// and sync cannot resume until they are restored.
	BackupUnavailable State = "backupUnavailable"
)

// Status is a snapshot of the engine.
type Status struct {
	State    State     `json:"state"`
	LastSync time.Time `json:"lastSync,omitempty"`
	Message  string    `json:"message,omitempty"`
}

func (s Status) String() string {
	switch s.State {
	case Synced:
		return fmt.Sprintf("synced %s", s.LastSync.Format(time.RFC3339))
	case Error:
		return fmt.Sprintf("error: %s", s.Message)
	}
	if s.Message != "" {
		return fmt.Sprintf("%s: %s", s.State, s.Message)
	}
	return string(s.State)
}

// canTrigger reports whether a reachability change may start a cycle from s.
func (s State) canTrigger() bool {
	return s == Idle || s == Offline
}

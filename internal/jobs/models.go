package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a tracked job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusPaused,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminalStatus reports whether a status admits no further transitions.
func IsTerminalStatus(status Status) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// Job is one tracked unit of remote processing.
type Job struct {
	ID         string
	FilePath   string
	FileName   string
	Status     Status
	Progress   int
	Language   string
	Model      string
	Error      string
	OutputPath string
	UpdatedAt  time.Time

	// Optimistic marks a locally applied control result awaiting worker
	// confirmation; Since records when it was applied. Any confirmed event
	// replaces an optimistic snapshot outright.
	Optimistic bool
	Since      time.Time
}

// IsTerminal reports whether the job reached a terminal status.
func (j Job) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}

// DisplayName returns the best human-readable identifier for the job.
func (j Job) DisplayName() string {
	if j.FileName != "" {
		return j.FileName
	}
	if j.FilePath != "" {
		return j.FilePath
	}
	return j.ID
}

// Action names a user-initiated job control operation.
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionCancel Action = "cancel"
)

// ParseAction converts a string into a known Action.
func ParseAction(value string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionPause:
		return ActionPause, true
	case ActionResume:
		return ActionResume, true
	case ActionCancel:
		return ActionCancel, true
	default:
		return "", false
	}
}

// wireAction maps a local control action onto the worker's endpoint verb.
// The worker names cancellation "stop".
func (a Action) wireAction() string {
	if a == ActionCancel {
		return "stop"
	}
	return string(a)
}

// optimisticStatus returns the status written locally before the worker
// confirms the action.
func (a Action) optimisticStatus() Status {
	switch a {
	case ActionPause:
		return StatusPaused
	case ActionResume:
		return StatusProcessing
	default:
		return StatusCancelled
	}
}

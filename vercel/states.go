package vercel

import "strings"

// DeploymentState is the lifecycle state of a deployment record
type DeploymentState string

const (
	DeploymentBuilding     DeploymentState = "BUILDING"
	DeploymentError        DeploymentState = "ERROR"
	DeploymentInitializing DeploymentState = "INITIALIZING"
	DeploymentQueued       DeploymentState = "QUEUED"
	DeploymentReady        DeploymentState = "READY"
	DeploymentCanceled     DeploymentState = "CANCELED"
)

// ReadyState is the readiness state of a build
type ReadyState string

const (
	ReadyStateInitializing ReadyState = "INITIALIZING"
	ReadyStateBuilding     ReadyState = "BUILDING"
	ReadyStateUploading    ReadyState = "UPLOADING"
	ReadyStateDeploying    ReadyState = "DEPLOYING"
	ReadyStateQueued       ReadyState = "QUEUED"
	ReadyStateReady        ReadyState = "READY"
	ReadyStateArchived     ReadyState = "ARCHIVED"
	ReadyStateError        ReadyState = "ERROR"
	ReadyStateCanceled     ReadyState = "CANCELED"
)

// readyStates maps every known build state to whether it is terminal.
// QUEUED is terminal: once a build is queued behind another the action
// publishes the URL rather than waiting on the queue.
var readyStates = map[ReadyState]bool{
	ReadyStateInitializing: false,
	ReadyStateBuilding:     false,
	ReadyStateUploading:    false,
	ReadyStateDeploying:    false,
	ReadyStateQueued:       true,
	ReadyStateReady:        true,
	ReadyStateArchived:     true,
	ReadyStateError:        true,
	ReadyStateCanceled:     true,
}

// ReadyStates returns every known build state.
func ReadyStates() []ReadyState {
	return []ReadyState{
		ReadyStateInitializing,
		ReadyStateBuilding,
		ReadyStateUploading,
		ReadyStateDeploying,
		ReadyStateQueued,
		ReadyStateReady,
		ReadyStateArchived,
		ReadyStateError,
		ReadyStateCanceled,
	}
}

// ParseReadyState validates a build state name.
func ParseReadyState(s string) (ReadyState, error) {
	state := ReadyState(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := readyStates[state]; !ok {
		return "", &ProtocolError{
			Field:    "build.readyState",
			Value:    s,
			Expected: "a known build state",
			Doc:      listBuildsDoc,
		}
	}
	return state, nil
}

// Known reports whether the state is part of the documented enumeration.
func (s ReadyState) Known() bool {
	_, ok := readyStates[s]
	return ok
}

// IsTerminal reports whether no further transition is expected. Unknown
// states are not terminal; callers should check Known first.
func (s ReadyState) IsTerminal() bool {
	return readyStates[s]
}

// InProgress reports whether the build is still running.
func (s ReadyState) InProgress() bool {
	terminal, ok := readyStates[s]
	return ok && !terminal
}

// Succeeded reports whether the state is one the action treats as a success.
func (s ReadyState) Succeeded() bool {
	return s == ReadyStateReady || s == ReadyStateQueued
}

func (s ReadyState) String() string {
	return string(s)
}

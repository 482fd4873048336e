package models

// SetStatus is the lifecycle state of a single set.
type SetStatus string

const (
	SetPlanned    SetStatus = "planned"
	SetInProgress SetStatus = "in_progress"
	SetSucceeded  SetStatus = "succeeded"
	SetFailed     SetStatus = "failed"
	SetPartial    SetStatus = "partial"
)

func (s SetStatus) IsValid() bool {
	switch s {
	case SetPlanned, SetInProgress, SetSucceeded, SetFailed, SetPartial:
		return true
	}
	return false
}

// ExerciseStatus is the lifecycle state of an exercise entry.
type ExerciseStatus string

const (
	ExercisePlanned    ExerciseStatus = "planned"
	ExerciseInProgress ExerciseStatus = "in_progress"
	ExerciseCompleted  ExerciseStatus = "completed"
	ExerciseFailed     ExerciseStatus = "failed"
	ExerciseAbandoned  ExerciseStatus = "abandoned"
)

func (s ExerciseStatus) IsValid() bool {
	switch s {
	case ExercisePlanned, ExerciseInProgress, ExerciseCompleted, ExerciseFailed, ExerciseAbandoned:
		return true
	}
	return false
}

// Finished reports whether the entry has a final performance outcome.
func (s ExerciseStatus) Finished() bool {
	return s == ExerciseCompleted || s == ExerciseFailed
}

// SessionStatus is the lifecycle state of a workout session.
type SessionStatus string

const (
	SessionPlanned    SessionStatus = "planned"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
	SessionSuspended  SessionStatus = "suspended"
)

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionPlanned, SessionInProgress, SessionCompleted, SessionCancelled, SessionSuspended:
		return true
	}
	return false
}

// sessionTransitions lists, per action, the states the action may start from
// and the state it leads to.
var sessionTransitions = map[string]struct {
	from []SessionStatus
	to   SessionStatus
}{
	"start":   {from: []SessionStatus{SessionPlanned}, to: SessionInProgress},
	"finish":  {from: []SessionStatus{SessionInProgress}, to: SessionCompleted},
	"cancel":  {from: []SessionStatus{SessionPlanned, SessionInProgress, SessionSuspended}, to: SessionCancelled},
	"suspend": {from: []SessionStatus{SessionInProgress}, to: SessionSuspended},
	"resume":  {from: []SessionStatus{SessionSuspended}, to: SessionInProgress},
}

// Transition returns the state reached by applying action to s, and false when
// the action is unknown or not allowed from s.
func (s SessionStatus) Transition(action string) (SessionStatus, bool) {
	t, ok := sessionTransitions[action]
	if !ok {
		return s, false
	}
	for _, from := range t.from {
		if from == s {
			return t.to, true
		}
	}
	return s, false
}

package controller

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of the controller's current request.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateCompleted
	StateFailed
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateRequesting: "requesting",
	StateStreaming:  "streaming",
	StateCompleted:  "completed",
	StateFailed:     "failed",
	StateCancelled:  "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions can happen for the request.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Status classifies an Outcome.
type Status int

const (
	StatusInProgress Status = iota
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "in progress"
	}
}

// Outcome is the result of a request. Text is set only when completed and
// Message only when failed.
type Outcome struct {
	Status  Status
	Text    string
	Message string
	Err     error
}

// ErrCancelled is the Err of a cancelled outcome.
var ErrCancelled = errors.New("summary request cancelled")

// ErrIdle is returned by Wait when no request was ever started.
var ErrIdle = errors.New("no summary request started")

// ApplicationError carries an error message sent by the summary service.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

const defaultApplicationMessage = "summary service reported an error"

func completed(text string) Outcome {
	return Outcome{Status: StatusCompleted, Text: text}
}

func failed(message string, err error) Outcome {
	return Outcome{Status: StatusFailed, Message: message, Err: err}
}

func cancelled() Outcome {
	return Outcome{Status: StatusCancelled, Err: ErrCancelled}
}

func (o Outcome) state() State {
	switch o.Status {
	case StatusCompleted:
		return StateCompleted
	case StatusFailed:
		return StateFailed
	case StatusCancelled:
		return StateCancelled
	default:
		return StateStreaming
	}
}

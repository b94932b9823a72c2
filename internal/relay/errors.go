package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/deusflow/newsrelay/internal/config"
	"github.com/deusflow/newsrelay/internal/news"
	"github.com/deusflow/newsrelay/internal/summarizer"
)

var (
	// ErrPermissionDenied is returned by a Chat when the destination refuses the message.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrCycleBusy is returned when the same cycle is already running.
	ErrCycleBusy = errors.New("cycle already running")
)

// ErrorKind classifies failures inside a category iteration.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissingCredential
	KindSourceUnavailable
	KindPermissionDenied
	KindGenerationFailure
	KindStartup
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindSourceUnavailable:
		return "source_unavailable"
	case KindPermissionDenied:
		return "permission_denied"
	case KindGenerationFailure:
		return "generation_failure"
	case KindStartup:
		return "startup"
	default:
		return "unknown"
	}
}

// Action is what the runner does after a failed step.
type Action int

const (
	// ActionContinue keeps processing the category as if nothing happened.
	ActionContinue Action = iota
	// ActionSkipSource drops the failing source and keeps the others.
	ActionSkipSource
	// ActionSkipCategory abandons the category for this cycle; nothing is marked.
	ActionSkipCategory
	// ActionAbortProcess stops the process. Only startup errors map here.
	ActionAbortProcess
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionSkipSource:
		return "skip_source"
	case ActionSkipCategory:
		return "skip_category"
	case ActionAbortProcess:
		return "abort_process"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

var policy = map[ErrorKind]Action{
	KindMissingCredential: ActionSkipSource,
	KindSourceUnavailable: ActionSkipSource,
	KindPermissionDenied:  ActionSkipCategory,
	KindGenerationFailure: ActionContinue,
	KindUnknown:           ActionSkipCategory,
	KindStartup:           ActionAbortProcess,
}

// Decide returns the action for an error kind.
func Decide(kind ErrorKind) Action {
	if a, ok := policy[kind]; ok {
		return a
	}
	return ActionSkipCategory
}

// Classify maps an error to its kind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, news.ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, news.ErrSourceUnavailable):
		return KindSourceUnavailable
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, summarizer.ErrGeneration):
		return KindGenerationFailure
	case errors.Is(err, config.ErrInvalidConfig):
		return KindStartup
	default:
		return KindUnknown
	}
}

// Step names a stage of category processing.
type Step string

const (
	StepResolve   Step = "resolve_channel"
	StepFetch     Step = "fetch"
	StepSummarize Step = "summarize"
	StepDeliver   Step = "deliver"
)

// StepError is the failure of one step, classified for the policy table.
type StepError struct {
	Step   Step
	Source string
	Kind   ErrorKind
	Err    error
}

func newStepError(step Step, source string, err error) *StepError {
	return &StepError{Step: step, Source: source, Kind: Classify(err), Err: err}
}

func (e *StepError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Step, e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Action returns the policy decision for this failure.
func (e *StepError) Action() Action { return Decide(e.Kind) }

func isShutdown(ctx context.Context) bool {
	return ctx.Err() != nil
}

package plans

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nhle/diet-tracker/internal/model"
)

var (
	// ErrCreateCancelled is returned when the user cancels the conflict
	// prompt. No writes were made.
	ErrCreateCancelled = errors.New("plan creation cancelled")

	// ErrEditCancelled is returned when the user abandons a plan edit.
	ErrEditCancelled = errors.New("plan edit cancelled")

	// ErrInvalidDraft is the sentinel behind every *ValidationError.
	ErrInvalidDraft = errors.New("invalid plan draft")

	// ErrNoSession is returned when a call needs the signed-in user and the
	// session carries none.
	ErrNoSession = errors.New("no signed-in user")
)

// ValidationError lists the draft fields that failed validation, keyed by
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%v: %s", ErrInvalidDraft, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDraft }

// Activation steps reported by ActivationError.
const (
	StepDeactivate = "deactivate"
	StepActivate   = "activate"
	StepCreate     = "create"
)

// ActivationError describes where a deactivate-then-activate sequence
// stopped. The two writes are not atomic, so a failure after a sibling was
// deactivated can leave the user with no active plan; Deactivated lists the
// plans that were switched off and Restored reports whether they were
// switched back on.
type ActivationError struct {
	Step        string
	PlanID      model.ID
	Deactivated []model.ID
	Restored    bool
	Err         error
}

func (e *ActivationError) Error() string {
	msg := fmt.Sprintf("%s plan %s: %v", e.Step, e.PlanID, e.Err)
	if len(e.Deactivated) == 0 {
		return msg
	}
	if e.Restored {
		return msg + fmt.Sprintf(" (plans %v were reactivated)", e.Deactivated)
	}
	return msg + fmt.Sprintf(" (plans %v were left inactive)", e.Deactivated)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// IsActivationError reports whether err (or any error in its chain) is an
// ActivationError.
func IsActivationError(err error) bool {
	var activationErr *ActivationError
	return errors.As(err, &activationErr)
}

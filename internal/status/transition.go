package status

import (
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

// transitions is the directed adjacency table of the lifecycle.
var transitions = map[model.StatusCode][]model.StatusCode{
	model.StatusSuspicious: {model.StatusPending},
	model.StatusPending:    {model.StatusNotified, model.StatusReview, model.StatusDisabled, model.StatusResolved},
	model.StatusNotified:   {model.StatusReview, model.StatusDisabled, model.StatusResolved},
	model.StatusReview:     {model.StatusDisabled, model.StatusResolved},
	model.StatusDisabled:   {},
	model.StatusResolved:   {},
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to model.StatusCode) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Targets returns the statuses reachable from from in one step.
func Targets(from model.StatusCode) []model.StatusCode {
	next := transitions[from]
	out := make([]model.StatusCode, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves code.
func IsTerminal(code model.StatusCode) bool {
	next, ok := transitions[code]
	return ok && len(next) == 0
}

// IsAlreadyFlagged reports whether a record in code has already been flagged
// and must not be flagged again.
func IsAlreadyFlagged(code model.StatusCode) bool {
	switch code {
	case model.StatusPending, model.StatusNotified, model.StatusReview, model.StatusDisabled:
		return true
	}
	return false
}

// Validate checks a status change for searchName. Flag requests on an
// already flagged record fail with ErrAlreadyFlagged; every other illegal
// edge fails with a *errclass.TransitionError.
func Validate(searchName string, from, to model.StatusCode) error {
	if to == model.StatusPending && IsAlreadyFlagged(from) {
		return errclass.ErrAlreadyFlagged.WithMessagef("search '%s' is already flagged (%s)", searchName, Label(from))
	}
	if !CanTransition(from, to) {
		return &errclass.TransitionError{SearchName: searchName, From: from, To: to}
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sgov-project/sgov/internal/governance"
	"github.com/sgov-project/sgov/internal/status"
	"github.com/sgov-project/sgov/pkg/color"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

// suggestSearches offers close matches when a search name is not found.
func suggestSearches(query string, rows []governance.View) string {
	q := strings.ToLower(query)
	var prefix, substr []string
	for _, r := range rows {
		name := strings.ToLower(r.SearchName)
		switch {
		case strings.HasPrefix(name, q):
			prefix = append(prefix, r.SearchName)
		case strings.Contains(name, q):
			substr = append(substr, r.SearchName)
		}
	}
	matches := append(prefix, substr...)
	if len(matches) == 0 {
		return fmt.Sprintf("Run %s to see known searches.", color.Header("sgov list"))
	}
	sort.Strings(matches)
	if len(matches) > 3 {
		matches = matches[:3]
	}

	hint := "Did you mean"
	if len(matches) > 1 {
		hint += " one of"
	}
	quoted := make([]string, len(matches))
	for i, m := range matches {
		quoted[i] = fmt.Sprintf("'%s'", m)
	}
	return fmt.Sprintf("%s: %s?", hint, strings.Join(quoted, ", "))
}

// transitionHint lists the moves that are legal from the rejected source.
func transitionHint(from model.StatusCode) string {
	targets := status.Targets(from)
	if len(targets) == 0 {
		if from == model.StatusNone {
			return "The search is not suspicious, so there is nothing to flag."
		}
		return fmt.Sprintf("%s is a final status.", status.Label(from))
	}
	labels := make([]string, len(targets))
	for i, t := range targets {
		labels[i] = fmt.Sprintf("%s (%s)", t, status.Label(t))
	}
	return "Allowed next: " + strings.Join(labels, ", ")
}

// formatError renders err with a hint that says why the action was refused.
func formatError(err error) string {
	var te *errclass.TransitionError
	hint := ""
	switch {
	case errors.As(err, &te):
		hint = transitionHint(te.From)
	case errors.Is(err, errclass.ErrAlreadyFlagged):
		hint = "It is already in the flagged workflow; use notify, review, disable or resolve."
	case errors.Is(err, errclass.ErrRequiresDisableConfirmation):
		hint = fmt.Sprintf("Re-run with %s to disable the expiring searches instead.", color.Header("--disable-expired"))
	case errors.Is(err, errclass.ErrRevisionConflict):
		hint = "Another operator changed the lookup at the same time. Try again."
	case errors.Is(err, errclass.ErrAuditChainBroken):
		hint = "The audit log was modified after it was written."
	}
	if hint == "" {
		return err.Error()
	}
	return err.Error() + "\n" + color.Dim("  "+hint)
}

// Package status holds the static status registry, the transition rules and
// the display rules of the governance lifecycle.
package status

import "github.com/sgov-project/sgov/pkg/model"

// Info describes how a status is labelled and counted.
type Info struct {
	Code  model.StatusCode `json:"code"`
	Label string           `json:"label"`
	Color string           `json:"color"`

	// IsFlagged counts the status in the flagged bucket. Suspicious has its
	// own bucket and is not flagged.
	IsFlagged bool `json:"is_flagged"`

	// CanFlagOnly restricts the status to the single "Flag for Review" action
	// instead of the full flagged-state dropdown.
	CanFlagOnly bool `json:"can_flag_only"`

	Known bool `json:"known"`
}

// Unknown is returned for codes missing from the registry.
var Unknown = Info{
	Label: "Unknown",
	Color: "#999999",
}

var registry = map[model.StatusCode]Info{
	model.StatusSuspicious: {Label: "Suspicious", Color: "#f8be34", CanFlagOnly: true},
	model.StatusPending:    {Label: "Flagged", Color: "#f1813f", IsFlagged: true},
	model.StatusNotified:   {Label: "Notified", Color: "#dc4e41", IsFlagged: true},
	model.StatusReview:     {Label: "Pending Review", Color: "#7b56db", IsFlagged: true},
	model.StatusDisabled:   {Label: "Disabled", Color: "#708794"},
	model.StatusResolved:   {Label: "Resolved (Unflag)", Color: "#53a051"},
}

// Lookup returns the registry entry for code. Unknown codes resolve to the
// Unknown entry with Code set, so stale lookup data still renders.
func Lookup(code model.StatusCode) Info {
	info, ok := registry[code]
	if !ok {
		u := Unknown
		u.Code = code
		return u
	}
	info.Code = code
	info.Known = true
	return info
}

// Label returns the display label for code.
func Label(code model.StatusCode) string {
	return Lookup(code).Label
}

// Color returns the display color for code.
func Color(code model.StatusCode) string {
	return Lookup(code).Color
}

// IsFlagged reports whether code counts as flagged.
func IsFlagged(code model.StatusCode) bool {
	return Lookup(code).IsFlagged
}

// FlagStatus returns the audit flag-status value for code.
func FlagStatus(code model.StatusCode) string {
	if IsFlagged(code) {
		return model.FlagStatusFlagged
	}
	return model.FlagStatusUnflagged
}

// All returns the registry entries in lifecycle order.
func All() []Info {
	out := make([]Info, 0, len(model.AllStatuses))
	for _, code := range model.AllStatuses {
		out = append(out, Lookup(code))
	}
	return out
}

package model

// StatusCode identifies the governance state of a scheduled search.
// The string values are wire constants shared with the persisted lookup.
type StatusCode string

const (
	StatusSuspicious StatusCode = "suspicious"
	StatusPending    StatusCode = "pending"
	StatusNotified   StatusCode = "notified"
	StatusReview     StatusCode = "review"
	StatusDisabled   StatusCode = "disabled"
	StatusResolved   StatusCode = "resolved"

	// StatusNone marks a search with no governance state at all ("OK").
	StatusNone StatusCode = ""
)

// AllStatuses lists every known status in lifecycle order.
var AllStatuses = []StatusCode{
	StatusSuspicious,
	StatusPending,
	StatusNotified,
	StatusReview,
	StatusDisabled,
	StatusResolved,
}

// IsValid reports whether s is one of the known status codes.
func (s StatusCode) IsValid() bool {
	switch s {
	case StatusSuspicious, StatusPending, StatusNotified, StatusReview, StatusDisabled, StatusResolved:
		return true
	}
	return false
}

// Icon is the single badge shown next to a search in list views.
type Icon string

const (
	IconDisabled   Icon = "disabled"
	IconNotified   Icon = "notified"
	IconFlagged    Icon = "flagged"
	IconSuspicious Icon = "suspicious"
	IconNone       Icon = ""
)

// HashValue is a SHA-256 hash stored as hex string.
type HashValue string

// SecondsPerDay converts remediation days to deadline seconds.
const SecondsPerDay int64 = 86400

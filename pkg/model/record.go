package model

// GovernanceRecord is the governance state of one scheduled search.
//
// Status, deadline, flag and notification fields are persisted in the flagged
// lookup. IsSuspicious, IsDisabledByPlatform and SuspiciousReason are external
// facts merged in from the search inventory and never written back.
type GovernanceRecord struct {
	SearchName string `json:"search_name"`
	Owner      string `json:"search_owner"`
	App        string `json:"search_app"`

	Status StatusCode `json:"status"`

	IsSuspicious         bool `json:"is_suspicious"`
	IsDisabledByPlatform bool `json:"disabled"`

	// RemediationDeadline is a Unix timestamp; zero means no deadline set.
	RemediationDeadline int64 `json:"remediation_deadline"`

	FlagReason       string `json:"reason"`
	SuspiciousReason string `json:"suspicious_reason,omitempty"`
	Notes            string `json:"notes,omitempty"`

	FlaggedBy        string `json:"flagged_by"`
	FlaggedTime      int64  `json:"flagged_time"`
	NotificationSent bool   `json:"notification_sent"`
	NotificationTime int64  `json:"notification_time"`
}

// HasDeadline reports whether a remediation deadline is set.
func (r *GovernanceRecord) HasDeadline() bool {
	return r.RemediationDeadline > 0
}

// Clone returns a copy of r.
func (r *GovernanceRecord) Clone() *GovernanceRecord {
	c := *r
	return &c
}

// LookupColumns is the column order of the persisted flagged-search lookup.
var LookupColumns = []string{
	"search_name",
	"search_owner",
	"search_app",
	"flagged_by",
	"flagged_time",
	"notification_sent",
	"notification_time",
	"remediation_deadline",
	"status",
	"reason",
	"notes",
}

// SearchFacts are platform-owned facts about a scheduled search, read from the
// search inventory.
type SearchFacts struct {
	SearchName       string `json:"search_name"`
	Owner            string `json:"search_owner"`
	App              string `json:"search_app"`
	IsSuspicious     bool   `json:"is_suspicious"`
	Disabled         bool   `json:"disabled"`
	SuspiciousReason string `json:"suspicious_reason,omitempty"`
}

// InventoryColumns is the column order of the search inventory lookup.
var InventoryColumns = []string{
	"search_name",
	"search_owner",
	"search_app",
	"is_suspicious",
	"disabled",
	"suspicious_reason",
}

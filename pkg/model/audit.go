package model

// Action is the audit vocabulary for governance operations.
type Action string

const (
	ActionFlag           Action = "flag"
	ActionUnflag         Action = "unflag"
	ActionNotify         Action = "notify"
	ActionExtendDeadline Action = "extend_deadline"
	ActionDisable        Action = "disable"
	ActionEnable         Action = "enable"
	ActionMarkOK         Action = "mark_ok"
	ActionStatusChange   Action = "status_change"
	ActionBulkFlag       Action = "bulk_flag"
	ActionBulkUnflag     Action = "bulk_unflag"
)

// Flag status values recorded in old_flag_status/new_flag_status.
const (
	FlagStatusFlagged   = "flagged"
	FlagStatusUnflagged = "unflagged"
)

// AuditEntry is a single line in the audit log (JSONL format).
// Optional fields are always present, empty rather than null.
type AuditEntry struct {
	Timestamp        int64      `json:"timestamp"`
	Action           Action     `json:"action"`
	SearchName       string     `json:"search_name"`
	SearchOwner      string     `json:"search_owner"`
	SearchApp        string     `json:"search_app"`
	OldStatus        StatusCode `json:"old_status"`
	NewStatus        StatusCode `json:"new_status"`
	OldFlagStatus    string     `json:"old_flag_status"`
	NewFlagStatus    string     `json:"new_flag_status"`
	OldDeadline      int64      `json:"old_deadline"`
	NewDeadline      int64      `json:"new_deadline"`
	FlagReason       string     `json:"flag_reason"`
	SuspiciousReason string     `json:"suspicious_reason"`
	PerformedBy      string     `json:"performed_by"`
	Details          string     `json:"details"`
	SessionID        string     `json:"session_id"`
}

// AuditRecord is an AuditEntry sealed into the hash chain.
type AuditRecord struct {
	AuditEntry
	PrevHash   HashValue `json:"prev_hash"`
	RecordHash HashValue `json:"record_hash"`
}

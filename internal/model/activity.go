package model

import "time"

// ActionKind enumerates the auditable action types.
type ActionKind string

const (
	ActionLogin        ActionKind = "LOGIN"
	ActionLogout       ActionKind = "LOGOUT"
	ActionUpload       ActionKind = "UPLOAD"
	ActionView         ActionKind = "VIEW"
	ActionDownload     ActionKind = "DOWNLOAD"
	ActionDelete       ActionKind = "DELETE"
	ActionRename       ActionKind = "RENAME"
	ActionRestore      ActionKind = "RESTORE"
	ActionStatusChange ActionKind = "STATUS_CHANGE"
	ActionError        ActionKind = "ERROR"
)

// ActivityLogEntry records one significant user action.
// UserID may be nil when the acting account was removed after the fact; the
// entry itself is kept for incident reconstruction.
type ActivityLogEntry struct {
	ID        int64      `json:"id"`
	UserID    *string    `json:"-"`
	Username  string     `json:"username,omitempty"`
	Action    ActionKind `json:"action"`
	Details   string     `json:"details"`
	Timestamp time.Time  `json:"timestamp"`
}

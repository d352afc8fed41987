package domain

import "time"

// Audit actions recorded in the activity log.
const (
	ActionLoginAttempt = "LOGIN_ATTEMPT"
	ActionLogin        = "LOGIN"
	ActionLogout       = "LOGOUT"
	ActionUserRegister = "USER_REGISTER"
	ActionUserCreate   = "USER_CREATE"
	ActionItemCreate   = "ITEM_CREATE"
	ActionItemUpdate   = "ITEM_UPDATE"
	ActionItemDelete   = "ITEM_DELETE"
)

// LogEntry is one activity-log row. Entries never contain passwords or TOTP
// secrets.
type LogEntry struct {
	ID        string
	Username  string
	Action    string
	Details   string
	CreatedAt time.Time
}

package domain

import "time"

// AuditEntry is a write-once record of a mutating action. The engine never
// reads audit entries back for decisions.
type AuditEntry struct {
	ID        string
	ActorID   string
	Action    string
	Detail    string
	Timestamp time.Time
}

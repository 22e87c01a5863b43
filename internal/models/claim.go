package models

import "time"

// Claim is the glass-damage case owning a conversation. Claim CRUD is handled
// by the dashboard service; here a claim supplies the conversation scope, the
// completion timestamp and the read-only flag.
type Claim struct {
	BaseModelWithDeleted
	InsurerID   string      `gorm:"type:uuid;index;not null"`
	WorkshopID  string      `gorm:"type:uuid;index"`
	Status      ClaimStatus `gorm:"type:varchar(20);default:'open'"`
	CompletedAt *time.Time
}

// IsReadOnly reports whether the claim's conversation no longer accepts
// messages.
func (c *Claim) IsReadOnly() bool {
	return c.Status == ClaimStatusCompleted
}

package models

// User is the authenticated account behind a chat participant. Accounts are
// created by the registration flow, which lives outside this service; the
// chat backend only reads them to resolve sender identity.
type User struct {
	BaseModel
	Email       string   `gorm:"uniqueIndex;not null"`
	DisplayName string   `gorm:"type:varchar(120)"`
	CompanyName string   `gorm:"type:varchar(160)"`
	Role        UserRole `gorm:"type:varchar(20);not null"`
}

// Label returns the name shown next to a message: the personal display name
// when present, otherwise the company name.
func (u *User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.CompanyName
}

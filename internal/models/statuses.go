package models

type UserRole string
type ClaimStatus string

const (
	UserRoleVersicherung UserRole = "versicherung"
	UserRoleWerkstatt    UserRole = "werkstatt"
	UserRoleAdmin        UserRole = "admin"

	ClaimStatusOpen       ClaimStatus = "open"
	ClaimStatusInProgress ClaimStatus = "in_progress"
	ClaimStatusCompleted  ClaimStatus = "completed"
)

// ValidUserRoles lists the roles accepted by the is-user-role validation rule.
var ValidUserRoles = []UserRole{UserRoleVersicherung, UserRoleWerkstatt, UserRoleAdmin}

package models

type UserRole string

const (
	RoleCoach     UserRole = "COACH"
	RoleAthlete   UserRole = "ATHLETE"
	RoleSpectator UserRole = "SPECTATOR"
)

// ParseUserRole normalizes a raw role value from the spreadsheet.
// Matching is case-insensitive.
func ParseUserRole(raw string) (UserRole, bool) {
	switch UserRole(normalizeUpper(raw)) {
	case RoleCoach:
		return RoleCoach, true
	case RoleAthlete:
		return RoleAthlete, true
	case RoleSpectator:
		return RoleSpectator, true
	}
	return "", false
}

type User struct {
	ID         int      `json:"id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	School     string   `json:"school"`
	EmailValid bool     `json:"email_valid"`
}

// DisplayName renders the user as "First Last <email>" for diagnostics
// and audit messages. Either name part may be empty, but not both.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	return name + " <" + u.Email + ">"
}

package models

import (
	"fmt"
	"sort"
	"strings"
)

type WeightClass string

const (
	WeightLight     WeightClass = "light"
	WeightMiddle    WeightClass = "middle"
	WeightHeavy     WeightClass = "heavy"
	WeightAlternate WeightClass = "alternate"
)

// ParseWeightClass normalizes a raw weight class value.
func ParseWeightClass(raw string) (WeightClass, bool) {
	switch WeightClass(strings.ToLower(strings.TrimSpace(raw))) {
	case WeightLight:
		return WeightLight, true
	case WeightMiddle:
		return WeightMiddle, true
	case WeightHeavy:
		return WeightHeavy, true
	case WeightAlternate:
		return WeightAlternate, true
	}
	return "", false
}

// TeamKey uniquely identifies a team within the roster.
type TeamKey struct {
	School   string `json:"school"`
	Division string `json:"division"`
	Number   int    `json:"number"`
}

// Name renders the key the way it appears in the TMS spreadsheet,
// e.g. "Central High A12".
func (k TeamKey) Name() string {
	return fmt.Sprintf("%s %s%d", k.School, k.Division, k.Number)
}

// PoomsaeDivision reports whether the division code denotes a poomsae
// team. Any other prefix is a sparring team.
func PoomsaeDivision(division string) bool {
	return strings.HasPrefix(strings.ToUpper(division), "P")
}

// Team is a roster-level team. Member slots hold athlete emails; an
// empty string means the slot is unfilled. Alternates keep their
// registration order.
type Team struct {
	ID         int      `json:"id"`
	School     string   `json:"school"`
	Division   string   `json:"division"`
	Number     int      `json:"number"`
	Light      string   `json:"light,omitempty"`
	Middle     string   `json:"middle,omitempty"`
	Heavy      string   `json:"heavy,omitempty"`
	Alternates []string `json:"alternates"`
}

func (t *Team) Key() TeamKey {
	return TeamKey{School: t.School, Division: t.Division, Number: t.Number}
}

// HasMainMembers reports whether any of the light/middle/heavy slots is
// filled. Teams with only alternates are dropped from the roster.
func (t *Team) HasMainMembers() bool {
	return t.Light != "" || t.Middle != "" || t.Heavy != ""
}

// Poomsae reports whether this is a poomsae team.
func (t *Team) Poomsae() bool {
	return PoomsaeDivision(t.Division)
}

// HasMember reports whether the athlete occupies any slot on the team,
// alternates included.
func (t *Team) HasMember(email string) bool {
	if t.Light == email || t.Middle == email || t.Heavy == email {
		return true
	}
	for _, alt := range t.Alternates {
		if alt == email {
			return true
		}
	}
	return false
}

// ResolvedTeam is a team joined with its member users, as returned by
// the roster storage for notification compilation.
type ResolvedTeam struct {
	Key        TeamKey `json:"key"`
	Light      *User   `json:"light,omitempty"`
	Middle     *User   `json:"middle,omitempty"`
	Heavy      *User   `json:"heavy,omitempty"`
	Alternates []User  `json:"alternates"`
}

func (t *ResolvedTeam) Name() string {
	return t.Key.Name()
}

// ValidEmails returns the sorted, deduplicated emails of every member
// (alternates included) whose email is marked valid.
func (t *ResolvedTeam) ValidEmails() []string {
	seen := make(map[string]bool)
	for _, member := range []*User{t.Light, t.Middle, t.Heavy} {
		if member != nil && member.EmailValid {
			seen[member.Email] = true
		}
	}
	for _, alt := range t.Alternates {
		if alt.EmailValid {
			seen[alt.Email] = true
		}
	}
	emails := make([]string, 0, len(seen))
	for email := range seen {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

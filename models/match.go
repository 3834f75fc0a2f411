package models

import "fmt"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCanceled   MatchStatus = "canceled"
)

// MatchTeam is one side of a match as read from the matches worksheet.
// Valid reports whether the raw cell could be parsed into a school and
// team code; Name always carries the raw display text.
type MatchTeam struct {
	Name   string `json:"name"`
	School string `json:"school,omitempty"`
	Number int    `json:"number,omitempty"`
	Valid  bool   `json:"valid"`
}

// Key builds the team lookup key for this side. The division comes from
// the match itself: a valid side always plays in the match's division.
func (t MatchTeam) Key(division string) TeamKey {
	return TeamKey{School: t.School, Division: division, Number: t.Number}
}

// MatchInfo is one row of the matches worksheet, with raw and
// possibly-invalid team identifiers.
type MatchInfo struct {
	Number   int       `json:"number"`
	Division string    `json:"division"`
	Round    string    `json:"round"`
	Status   string    `json:"status"`
	Blue     MatchTeam `json:"blue_team"`
	Red      MatchTeam `json:"red_team"`
}

func (m MatchInfo) Description() string {
	return fmt.Sprintf("Match %d", m.Number)
}

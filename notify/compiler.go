package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tns-project/tns-server/models"
)

// MatchState tracks a match through compilation and sending.
type MatchState string

const (
	StateNew        MatchState = "NEW"
	StateValid      MatchState = "VALID"
	StateInvalid    MatchState = "INVALID"
	StateSent       MatchState = "SENT"
	StateSendFailed MatchState = "SEND_FAILED"
)

// Diagnostics collects per-match messages keyed by severity, then match
// number.
type Diagnostics map[models.DiagnosticLevel]map[int][]string

// Add appends a message for a match under the given severity.
func (d Diagnostics) Add(level models.DiagnosticLevel, matchNumber int, message string) {
	byMatch, ok := d[level]
	if !ok {
		byMatch = make(map[int][]string)
		d[level] = byMatch
	}
	byMatch[matchNumber] = append(byMatch[matchNumber], message)
}

// Empty reports whether no diagnostics were recorded.
func (d Diagnostics) Empty() bool {
	return len(d) == 0
}

// TeamLookup resolves a team key to its roster members, or an error when
// the team is unknown.
type TeamLookup func(models.TeamKey) (*models.ResolvedTeam, error)

// SubscriberLookup returns the subscriber emails for exactly one team.
type SubscriberLookup func(models.TeamKey) []string

// SchoolEmailLookup returns the emails of a school's users holding any of
// the given roles.
type SchoolEmailLookup func(school string, roles []models.UserRole) []string

// Settings selects which extra recipients are added to each team's
// notification emails.
type Settings struct {
	SendToCoaches     bool
	SendToSpectators  bool
	SendToSubscribers bool
}

// Compiler turns match infos into send directives using injected roster
// and subscription lookups. It performs no I/O itself.
type Compiler struct {
	Teams        TeamLookup
	Subscribers  SubscriberLookup
	SchoolEmails SchoolEmailLookup
	Settings     Settings
}

// MatchResult is the outcome of compiling one match.
type MatchResult struct {
	Match      models.MatchInfo
	State      MatchState
	Reason     string // first validation failure, set when State is INVALID
	Directives []models.SendDirective
}

// RecordSendResult transitions the match after a send attempt. A failure
// is sticky: one failed directive marks the whole match SEND_FAILED even
// if its other directive already went out.
func (r *MatchResult) RecordSendResult(err error) {
	if err != nil {
		r.State = StateSendFailed
		return
	}
	if r.State == StateValid {
		r.State = StateSent
	}
}

// Batch is the result of compiling a list of matches.
type Batch struct {
	Results     []*MatchResult
	Diagnostics Diagnostics
}

// Directives returns the send directives of all valid matches, in match
// order.
func (b *Batch) Directives() []models.SendDirective {
	var out []models.SendDirective
	for _, r := range b.Results {
		out = append(out, r.Directives...)
	}
	return out
}

// Compile validates each match and builds its send directives. An invalid
// match is recorded in the diagnostics with its first failure reason and
// produces no directives, but does not stop the rest of the batch. The
// subject must already be validated with ValidateSubject.
func (c *Compiler) Compile(subject string, matches []models.MatchInfo) *Batch {
	batch := &Batch{Diagnostics: make(Diagnostics)}
	seen := make(map[int]bool)
	warnedRepeat := make(map[int]bool)
	for _, match := range matches {
		if seen[match.Number] {
			// assume repeats carry the same data; warn only once
			if !warnedRepeat[match.Number] {
				warnedRepeat[match.Number] = true
				batch.Diagnostics.Add(models.DiagnosticWarning, match.Number, "Repeated match number")
			}
			continue
		}
		seen[match.Number] = true

		result := &MatchResult{Match: match, State: StateNew}
		batch.Results = append(batch.Results, result)

		reason, directives := c.compileMatch(subject, match)
		if reason != "" {
			result.State = StateInvalid
			result.Reason = reason
			batch.Diagnostics.Add(models.DiagnosticError, match.Number, reason)
			continue
		}
		result.State = StateValid
		result.Directives = directives
	}
	return batch
}

// compileMatch checks a single match in priority order and returns either
// the first failure reason or the match's send directives.
func (c *Compiler) compileMatch(subject string, match models.MatchInfo) (string, []models.SendDirective) {
	// only meaningful when both cells parsed; unparseable sides carry
	// zero-valued school and number and are reported as not found below
	if match.Blue.Valid && match.Red.Valid &&
		match.Blue.School == match.Red.School && match.Blue.Number == match.Red.Number {
		return "Both teams are the same", nil
	}

	var missing []string
	if match.Division == "" {
		missing = append(missing, "Division")
	}
	if match.Round == "" {
		missing = append(missing, "Round")
	}
	if match.Status == "" {
		missing = append(missing, "Status")
	}
	if len(missing) > 0 {
		return "Missing " + strings.Join(missing, ", "), nil
	}

	sides := []struct {
		color string
		team  models.MatchTeam
	}{
		{"blue", match.Blue},
		{"red", match.Red},
	}

	var (
		missingTeams  []string // "blue team 'X'" fragments
		missingEmails []string // colors with zero valid emails
		recipients    [2][]string
	)
	for i, side := range sides {
		if !side.team.Valid {
			missingTeams = append(missingTeams, fmt.Sprintf("%s team %q", side.color, side.team.Name))
			continue
		}
		key := side.team.Key(match.Division)
		team, err := c.Teams(key)
		if err != nil {
			// the cause does not matter here, only that lookup failed
			missingTeams = append(missingTeams, fmt.Sprintf("%s team %q", side.color, key.Name()))
			continue
		}
		emails := team.ValidEmails()
		if len(emails) == 0 {
			missingEmails = append(missingEmails, side.color)
			continue
		}
		emails = append(emails, c.extraRecipients(key)...)
		recipients[i] = dedupeEmails(emails)
	}
	if len(missingTeams) > 0 {
		return "Could not find " + strings.Join(missingTeams, " and "), nil
	}
	if len(missingEmails) == 2 {
		return "No valid emails for both teams", nil
	}
	if len(missingEmails) == 1 {
		return fmt.Sprintf("No valid emails for %s team", missingEmails[0]), nil
	}

	number := match.Number
	blueSubject, redSubject := RenderSubjects(subject, match)
	if blueSubject == redSubject {
		return "", []models.SendDirective{{
			Subject:     blueSubject,
			Recipients:  dedupeEmails(append(recipients[0], recipients[1]...)),
			MatchNumber: &number,
			Description: match.Description(),
		}}
	}
	return "", []models.SendDirective{
		{
			Subject:     blueSubject,
			Recipients:  recipients[0],
			MatchNumber: &number,
			Description: match.Description() + ", blue team",
		},
		{
			Subject:     redSubject,
			Recipients:  recipients[1],
			MatchNumber: &number,
			Description: match.Description() + ", red team",
		},
	}
}

func (c *Compiler) extraRecipients(key models.TeamKey) []string {
	var extra []string
	var roles []models.UserRole
	if c.Settings.SendToCoaches {
		roles = append(roles, models.RoleCoach)
	}
	if c.Settings.SendToSpectators {
		roles = append(roles, models.RoleSpectator)
	}
	if len(roles) > 0 && c.SchoolEmails != nil {
		extra = append(extra, c.SchoolEmails(key.School, roles)...)
	}
	if c.Settings.SendToSubscribers && c.Subscribers != nil {
		extra = append(extra, c.Subscribers(key)...)
	}
	return extra
}

func dedupeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		if !seen[email] {
			seen[email] = true
			out = append(out, email)
		}
	}
	sort.Strings(out)
	return out
}

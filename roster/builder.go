// Package roster turns pre-tokenized TMS spreadsheet rows into a
// validated roster of schools, users, and teams. Building is a pure
// in-memory transformation: no I/O, deterministic for a given row
// order, and atomic per call (the caller either persists the returned
// roster or discards the whole attempt).
package roster

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/utils"
)

// teamCodePattern splits a team code like "A12" or "P5" into the
// division prefix and the team number.
var teamCodePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z' ]*?)\s*([0-9]+)$`)

// discipline distinguishes the two team kinds for the one-team-per-
// discipline rule.
type discipline int

const (
	sparring discipline = iota
	poomsae
)

func disciplineOf(division string) discipline {
	if models.PoomsaeDivision(division) {
		return poomsae
	}
	return sparring
}

func (d discipline) String() string {
	if d == poomsae {
		return "poomsae"
	}
	return "sparring"
}

type builder struct {
	diagnostics []models.RosterDiagnostic

	schoolOrder []string
	schoolSeen  map[string]bool

	userOrder []string
	users     map[string]*models.User

	teamOrder []models.TeamKey
	teams     map[models.TeamKey]*models.Team

	// mainSlots tracks, per athlete and discipline, the team where the
	// athlete holds a non-alternate slot. Alternates are exempt from
	// the one-team-per-discipline rule.
	mainSlots map[string]map[discipline]models.TeamKey
}

// Build processes the rows in order and returns the generated
// diagnostics together with the validated roster. Diagnostics are in
// generation order; the caller sorts them by row number if it needs to.
func Build(rows []models.RosterRow) ([]models.RosterDiagnostic, *models.Roster) {
	b := &builder{
		schoolSeen: make(map[string]bool),
		users:      make(map[string]*models.User),
		teams:      make(map[models.TeamKey]*models.Team),
		mainSlots:  make(map[string]map[discipline]models.TeamKey),
	}
	for _, row := range rows {
		b.processRow(row)
	}
	roster := b.finish()
	return b.diagnostics, roster
}

func (b *builder) log(level models.DiagnosticLevel, rowNum *int, format string, args ...interface{}) {
	b.diagnostics = append(b.diagnostics, models.RosterDiagnostic{
		Level:   level,
		RowNum:  rowNum,
		Message: fmt.Sprintf(format, args...),
	})
}

func (b *builder) processRow(row models.RosterRow) {
	rowNum := row.RowNum
	info := func(format string, args ...interface{}) {
		b.log(models.DiagnosticInfo, &rowNum, format, args...)
	}
	warning := func(format string, args ...interface{}) {
		b.log(models.DiagnosticWarning, &rowNum, format, args...)
	}
	errorf := func(format string, args ...interface{}) {
		b.log(models.DiagnosticError, &rowNum, format, args...)
	}

	if len(row.MissingRequired) > 0 {
		errorf("Missing required values: %s", strings.Join(row.MissingRequired, ", "))
		return
	}

	role, ok := models.ParseUserRole(row.Role)
	if !ok {
		errorf("Invalid role %q (skipped)", row.Role)
		return
	}
	isAthlete := role == models.RoleAthlete

	user := models.User{
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Email:      row.Email,
		Role:       role,
		School:     row.School,
		EmailValid: utils.IsValidEmail(row.Email),
	}
	seen, repeated := b.users[row.Email]
	if repeated {
		var different []string
		if seen.FirstName != row.FirstName || seen.LastName != row.LastName {
			different = append(different, fmt.Sprintf("name %q", strings.TrimSpace(row.FirstName+" "+row.LastName)))
		}
		if seen.Role != role {
			different = append(different, fmt.Sprintf("role %q", role))
		}
		if seen.School != row.School {
			different = append(different, fmt.Sprintf("school %q", row.School))
		}
		if len(different) > 0 {
			errorf("Repeated email %q with different %s (skipped)", row.Email, listOfItems(different))
			return
		}
		if !isAthlete {
			warning("No need to repeat a %q user row (skipped)", role)
			return
		}
	}
	// warn once per address, on the row that registers it
	if !repeated && !user.EmailValid {
		warning("Email %q does not look valid, it will not receive notifications", row.Email)
	}

	if !isAthlete {
		b.addSchool(row.School, info)
		b.addUser(user)
		info("Added %s: %s (%s)", strings.ToLower(string(role)), user.DisplayName(), row.School)

		var unexpected []string
		if row.TeamCode != "" {
			unexpected = append(unexpected, `"team code"`)
		}
		if row.WeightClass != "" {
			unexpected = append(unexpected, `"fighting weight class"`)
		}
		if len(unexpected) > 0 {
			warning("Unnecessary data for %s (not %q role)", listOfItems(unexpected), models.RoleAthlete)
		}
		return
	}

	// Athlete rows must name a team.
	if row.TeamCode == "" {
		errorf("Missing team code (skipped)")
		return
	}
	match := teamCodePattern.FindStringSubmatch(row.TeamCode)
	if match == nil {
		errorf("Invalid team code %q (skipped)", row.TeamCode)
		return
	}
	division := match[1]
	number, err := strconv.Atoi(match[2])
	if err != nil {
		errorf("Invalid team code %q (skipped)", row.TeamCode)
		return
	}
	teamDiscipline := disciplineOf(division)

	var weightClass models.WeightClass
	hasWeightClass := row.WeightClass != ""
	if hasWeightClass {
		weightClass, ok = models.ParseWeightClass(row.WeightClass)
		if !ok {
			errorf("Invalid weight class %q (skipped)", row.WeightClass)
			return
		}
	}
	if teamDiscipline == sparring {
		if !hasWeightClass {
			errorf("Missing fighting weight class for sparring team (skipped)")
			return
		}
	} else if hasWeightClass && weightClass != models.WeightAlternate {
		warning("Unnecessary fighting weight class for poomsae team")
		hasWeightClass = false
		weightClass = ""
	}

	key := models.TeamKey{School: row.School, Division: division, Number: number}
	team, teamExists := b.teams[key]
	if teamExists && team.HasMember(row.Email) {
		errorf("Athlete already in team %q (skipped)", key.Name())
		return
	}

	// Which slot the athlete would take. Poomsae athletes without an
	// explicit weight class fill the first open main slot.
	slot := weightClass
	if !hasWeightClass {
		slot = models.WeightAlternate
		if !teamExists {
			slot = models.WeightLight
		} else if team.Light == "" {
			slot = models.WeightLight
		} else if team.Middle == "" {
			slot = models.WeightMiddle
		} else if team.Heavy == "" {
			slot = models.WeightHeavy
		}
	}
	if teamExists && teamDiscipline == sparring && slot != models.WeightAlternate {
		if occupied := teamSlot(team, slot); occupied != "" {
			errorf("Team %q already has a %s-weight athlete (skipped)", key.Name(), slot)
			return
		}
	}

	if slot != models.WeightAlternate {
		if other, held := b.mainSlots[row.Email][teamDiscipline]; held && other != key {
			errorf("Athlete already on %s team %q (skipped)", teamDiscipline, other.Name())
			return
		}
	}

	// All checks passed; register everything the row introduces.
	b.addSchool(row.School, info)
	if _, known := b.users[row.Email]; !known {
		b.addUser(user)
		info("Added athlete: %s (%s)", user.DisplayName(), row.School)
	}
	if !teamExists {
		team = &models.Team{School: row.School, Division: division, Number: number}
		b.teams[key] = team
		b.teamOrder = append(b.teamOrder, key)
		info("Added team: %s", key.Name())
	}

	if slot == models.WeightAlternate {
		team.Alternates = append(team.Alternates, row.Email)
	} else {
		setTeamSlot(team, slot, row.Email)
		if b.mainSlots[row.Email] == nil {
			b.mainSlots[row.Email] = make(map[discipline]models.TeamKey)
		}
		b.mainSlots[row.Email][teamDiscipline] = key
	}

	if teamDiscipline == sparring {
		info("Added athlete %s to team: %s (%s)", user.DisplayName(), key.Name(), capitalize(string(weightClass)))
	} else {
		info("Added athlete %s to team: %s", user.DisplayName(), key.Name())
	}
}

// finish runs the post-pass checks and assembles the roster. Teams
// without any main member are dropped.
func (b *builder) finish() *models.Roster {
	athleteCount := make(map[string]int)
	for _, email := range b.userOrder {
		user := b.users[email]
		if user.Role == models.RoleAthlete {
			athleteCount[user.School]++
		}
	}
	teamCount := make(map[string]int)
	for _, key := range b.teamOrder {
		teamCount[key.School]++
	}
	for _, school := range b.schoolOrder {
		if athleteCount[school] == 0 {
			b.log(models.DiagnosticWarning, nil, "School %q has no athletes", school)
		}
		if teamCount[school] == 0 {
			b.log(models.DiagnosticWarning, nil, "School %q has no teams", school)
		}
	}

	roster := &models.Roster{
		Schools: append([]string(nil), b.schoolOrder...),
		Users:   make([]models.User, 0, len(b.userOrder)),
		Teams:   make([]models.Team, 0, len(b.teamOrder)),
	}
	for _, email := range b.userOrder {
		roster.Users = append(roster.Users, *b.users[email])
	}
	for _, key := range b.teamOrder {
		team := b.teams[key]
		if !team.HasMainMembers() {
			b.log(models.DiagnosticError, nil, "Team %q has no main team members (dropped)", key.Name())
			continue
		}
		roster.Teams = append(roster.Teams, *team)
	}
	return roster
}

func (b *builder) addSchool(name string, info func(string, ...interface{})) {
	if b.schoolSeen[name] {
		return
	}
	b.schoolSeen[name] = true
	b.schoolOrder = append(b.schoolOrder, name)
	info("Added school: %s", name)
}

func (b *builder) addUser(user models.User) {
	u := user
	b.users[user.Email] = &u
	b.userOrder = append(b.userOrder, user.Email)
}

func teamSlot(team *models.Team, slot models.WeightClass) string {
	switch slot {
	case models.WeightLight:
		return team.Light
	case models.WeightMiddle:
		return team.Middle
	case models.WeightHeavy:
		return team.Heavy
	}
	return ""
}

func setTeamSlot(team *models.Team, slot models.WeightClass, email string) {
	switch slot {
	case models.WeightLight:
		team.Light = email
	case models.WeightMiddle:
		team.Middle = email
	case models.WeightHeavy:
		team.Heavy = email
	}
}

// listOfItems joins items as an English list: "a", "a and b",
// "a, b, and c".
func listOfItems(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

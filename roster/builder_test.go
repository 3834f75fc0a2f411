package roster

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tns-project/tns-server/models"
)

func athleteRow(rowNum int, first, last, email, school, teamCode, weight string) models.RosterRow {
	return models.RosterRow{
		RowNum:      rowNum,
		FirstName:   first,
		LastName:    last,
		Email:       email,
		Role:        "ATHLETE",
		School:      school,
		TeamCode:    teamCode,
		WeightClass: weight,
	}
}

func coachRow(rowNum int, first, last, email, school string) models.RosterRow {
	return models.RosterRow{
		RowNum:    rowNum,
		FirstName: first,
		LastName:  last,
		Email:     email,
		Role:      "Coach",
		School:    school,
	}
}

func diagnosticsByLevel(diags []models.RosterDiagnostic, level models.DiagnosticLevel) []models.RosterDiagnostic {
	var out []models.RosterDiagnostic
	for _, d := range diags {
		if d.Level == level {
			out = append(out, d)
		}
	}
	return out
}

func findMessage(t *testing.T, diags []models.RosterDiagnostic, level models.DiagnosticLevel, substr string) models.RosterDiagnostic {
	t.Helper()
	for _, d := range diags {
		if d.Level == level && strings.Contains(d.Message, substr) {
			return d
		}
	}
	t.Fatalf("no %s diagnostic containing %q; got %+v", level, substr, diags)
	return models.RosterDiagnostic{}
}

func TestBuildFullTeam(t *testing.T) {
	rows := []models.RosterRow{
		coachRow(2, "Dana", "Kim", "dana@central.edu", "Central"),
		athleteRow(3, "Ana", "Lee", "ana@central.edu", "Central", "A1", "light"),
		athleteRow(4, "Ben", "Cho", "ben@central.edu", "Central", "A1", "middle"),
		athleteRow(5, "Cam", "Park", "cam@central.edu", "Central", "A1", "heavy"),
		athleteRow(6, "Dee", "Song", "dee@central.edu", "Central", "A1", "alternate"),
	}
	diags, roster := Build(rows)

	if errs := diagnosticsByLevel(diags, models.DiagnosticError); errs != nil {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if got := roster.Schools; !reflect.DeepEqual(got, []string{"Central"}) {
		t.Errorf("schools = %v", got)
	}
	if len(roster.Users) != 5 {
		t.Fatalf("expected 5 users, got %d", len(roster.Users))
	}
	if len(roster.Teams) != 1 {
		t.Fatalf("expected 1 team, got %d", len(roster.Teams))
	}
	team := roster.Teams[0]
	if team.Division != "A" || team.Number != 1 {
		t.Errorf("team key = %s%d", team.Division, team.Number)
	}
	if team.Light != "ana@central.edu" || team.Middle != "ben@central.edu" || team.Heavy != "cam@central.edu" {
		t.Errorf("wrong slot assignment: %+v", team)
	}
	if !reflect.DeepEqual(team.Alternates, []string{"dee@central.edu"}) {
		t.Errorf("alternates = %v", team.Alternates)
	}
}

func TestBuildDeterministic(t *testing.T) {
	rows := []models.RosterRow{
		coachRow(2, "Dana", "Kim", "dana@central.edu", "Central"),
		athleteRow(3, "Ana", "Lee", "ana@central.edu", "Central", "A1", "light"),
		athleteRow(4, "Ben", "Cho", "ben@north.edu", "North", "P2", ""),
		athleteRow(5, "Ana", "Lee", "ana@central.edu", "Central", "P1", ""),
	}
	diags1, roster1 := Build(rows)
	diags2, roster2 := Build(rows)
	if !reflect.DeepEqual(diags1, diags2) {
		t.Errorf("diagnostics differ across runs")
	}
	if !reflect.DeepEqual(roster1, roster2) {
		t.Errorf("rosters differ across runs")
	}
}

func TestBuildMissingRequired(t *testing.T) {
	rows := []models.RosterRow{
		{RowNum: 2, MissingRequired: []string{`"email"`, `"school"`}},
	}
	diags, roster := Build(rows)
	d := findMessage(t, diags, models.DiagnosticError, "Missing required values")
	if !strings.Contains(d.Message, `"email", "school"`) {
		t.Errorf("message = %q", d.Message)
	}
	if d.RowNum == nil || *d.RowNum != 2 {
		t.Errorf("row num = %v", d.RowNum)
	}
	if len(roster.Users) != 0 {
		t.Errorf("expected empty roster")
	}
}

func TestBuildInvalidRole(t *testing.T) {
	rows := []models.RosterRow{
		{RowNum: 2, FirstName: "A", Email: "a@x.edu", Role: "REFEREE", School: "X"},
	}
	diags, roster := Build(rows)
	findMessage(t, diags, models.DiagnosticError, `Invalid role "REFEREE"`)
	if len(roster.Users) != 0 {
		t.Errorf("user should be skipped")
	}
}

func TestBuildRepeatedEmailConflict(t *testing.T) {
	rows := []models.RosterRow{
		coachRow(2, "Dana", "Kim", "dana@central.edu", "Central"),
		coachRow(3, "Dana", "Kim", "dana@central.edu", "North"),
	}
	diags, roster := Build(rows)

	errs := diagnosticsByLevel(diags, models.DiagnosticError)
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %+v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, `school "North"`) {
		t.Errorf("error should name the differing school: %q", errs[0].Message)
	}
	if len(roster.Users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(roster.Users))
	}
	if roster.Users[0].School != "Central" {
		t.Errorf("first-seen school should win, got %q", roster.Users[0].School)
	}
}

func TestBuildRepeatedNonAthleteWarns(t *testing.T) {
	rows := []models.RosterRow{
		coachRow(2, "Dana", "Kim", "dana@central.edu", "Central"),
		coachRow(3, "Dana", "Kim", "dana@central.edu", "Central"),
	}
	diags, roster := Build(rows)
	findMessage(t, diags, models.DiagnosticWarning, "No need to repeat")
	if len(roster.Users) != 1 {
		t.Errorf("expected 1 user, got %d", len(roster.Users))
	}
}

func TestBuildCoachWithTeamDataWarns(t *testing.T) {
	row := coachRow(2, "Dana", "Kim", "dana@central.edu", "Central")
	row.TeamCode = "A1"
	row.WeightClass = "light"
	diags, _ := Build([]models.RosterRow{row})
	d := findMessage(t, diags, models.DiagnosticWarning, "Unnecessary data")
	if !strings.Contains(d.Message, `"team code" and "fighting weight class"`) {
		t.Errorf("message = %q", d.Message)
	}
}

func TestBuildSparringMissingWeightClass(t *testing.T) {
	rows := []models.RosterRow{
		athleteRow(2, "Ana", "Lee", "ana@central.edu", "Central", "A12", ""),
	}
	diags, roster := Build(rows)
	findMessage(t, diags, models.DiagnosticError, "Missing fighting weight class for sparring team")
	if len(roster.Teams) != 0 {
		t.Errorf("no team should be created")
	}
}

func TestBuildPoomsaeWeightClassDropped(t *testing.T) {
	rows := []models.RosterRow{
		athleteRow(2, "Ana", "Lee", "ana@central.edu", "Central", "P5", "middle"),
	}
	diags, roster := Build(rows)
	findMessage(t, diags, models.DiagnosticWarning, "Unnecessary fighting weight class for poomsae team")

	if len(roster.Teams) != 1 {
		t.Fatalf("expected 1 team, got %d", len(roster.Teams))
	}
	// the explicit weight class is ignored; first open slot wins
	if roster.Teams[0].Light != "ana@central.edu" {
		t.Errorf("athlete should fill the first open slot: %+v", roster.Teams[0])
	}
	if roster.Teams[0].Middle != "" {
		t.Errorf("middle slot should stay empty: %+v", roster.Teams[0])
	}
}

func TestBuildPoomsaeOverflowToAlternate(t *testing.T) {
	rows := []models.RosterRow{
		athleteRow(2, "Ana", "Lee", "ana@x.edu", "X", "P1", ""),
		athleteRow(3, "Ben", "Cho", "ben@x.edu", "X", "P1", ""),
		athleteRow(4, "Cam", "Park", "cam@x.edu", "X", "P1", ""),
		athleteRow(5, "Dee", "Song", "dee@x.edu", "X", "P1", ""),
	}
	_, roster := Build(rows)
	team := roster.Teams[0]
	if team.Light == "" || team.Middle == "" || team.Heavy == "" {
		t.Fatalf("main slots should fill first: %+v", team)
	}
	if !reflect.DeepEqual(team.Alternates, []string{"dee@x.edu"}) {
		t.Errorf("fourth athlete should be an alternate: %v", team.Alternates)
	}
}

func TestBuildInvalidTeamCode(t *testing.T) {
	for _, code := range []string{"12", "A", "A-1", "1A"} {
		rows := []models.RosterRow{
			athleteRow(2, "Ana", "Lee", "ana@x.edu", "X", code, "light"),
		}
		diags, _ := Build(rows)
		findMessage(t, diags, models.DiagnosticError, "Invalid team code")
	}
}

func TestBuildSparringSlotConflict(t *testing.T) {
	rows := []models.RosterRow{
		athleteRow(2, "Ana", "Lee", "ana@x.edu", "X", "A1", "light"),
		athleteRow(3, "Ben", "Cho", "ben@x.edu", "X", "A1", "light"),
	}
	diags, roster := Build(rows)
	findMessage(t, diags, models.DiagnosticError, "already has a light-weight athlete")
	if roster.Teams[0].Light != "ana@x.edu" {
		t.Errorf("first athlete keeps the slot")
	}
	if len(roster.Users) != 1 {
		t.Errorf("conflicting athlete should not be registered, got %d users", len(roster.Users))
	}
}

func TestBuildAthleteAlreadyInTeam(t *testing.T) {
	rows := []models.RosterRow{
		athleteRow(2, "Ana", "Lee", "ana@x.edu", "X", "A1", "light"),
		athleteRow(3, "Ana", "Lee", "ana@x.edu", "X", "A1", "middle"),
	}
	diags, _ := Build(rows)
	findMessage(t, diags, models.DiagnosticError, "Athlete already in team")
}

func TestBuildOneTeamPerDiscipline(t *testing.T) {
	rows := []models.RosterRow{
		athleteRow(2, "Ana", "Lee", "ana@x.edu", "X", "A1", "light"),
		athleteRow(3, "Ana", "Lee", "ana@x.edu", "X", "B1", "light"),
		// a poomsae team and an alternate sparring slot are both fine
		athleteRow(4, "Ana", "Lee", "ana@x.edu", "X", "P1", ""),
		athleteRow(5, "Ana", "Lee", "ana@x.edu", "X", "B1", "alternate"),
	}
	diags, roster := Build(rows)

	d := findMessage(t, diags, models.DiagnosticError, "already on sparring team")
	if !strings.Contains(d.Message, "X A1") {
		t.Errorf("error should name the first team: %q", d.Message)
	}
	if len(roster.Teams) != 3 {
		t.Fatalf("expected 3 teams (A1, P1, B1), got %d", len(roster.Teams))
	}
}

func TestBuildPostPassDropsAlternatesOnlyTeam(t *testing.T) {
	rows := []models.RosterRow{
		athleteRow(2, "Ana", "Lee", "ana@x.edu", "X", "A1", "alternate"),
	}
	diags, roster := Build(rows)
	d := findMessage(t, diags, models.DiagnosticError, "no main team members")
	if d.RowNum != nil {
		t.Errorf("post-pass diagnostics carry no row number")
	}
	if len(roster.Teams) != 0 {
		t.Errorf("alternates-only team should be dropped")
	}
}

func TestBuildPostPassSchoolWarnings(t *testing.T) {
	rows := []models.RosterRow{
		coachRow(2, "Dana", "Kim", "dana@solo.edu", "Solo"),
	}
	diags, _ := Build(rows)
	findMessage(t, diags, models.DiagnosticWarning, `School "Solo" has no athletes`)
	findMessage(t, diags, models.DiagnosticWarning, `School "Solo" has no teams`)
}

func TestBuildInvalidEmailWarnsOnce(t *testing.T) {
	rows := []models.RosterRow{
		coachRow(2, "Dana", "Kim", "not-an-email", "Central"),
		coachRow(3, "Dana", "Kim", "not-an-email", "Central"),
		athleteRow(4, "Ana", "Lee", "ana@central.edu", "Central", "A1", "light"),
	}
	diags, roster := Build(rows)

	warned := 0
	for _, d := range diagnosticsByLevel(diags, models.DiagnosticWarning) {
		if strings.Contains(d.Message, `Email "not-an-email" does not look valid`) {
			warned++
			if d.RowNum == nil || *d.RowNum != 2 {
				t.Errorf("warning on row %v, want the registering row 2", d.RowNum)
			}
		}
	}
	if warned != 1 {
		t.Errorf("invalid email warned %d times, want 1", warned)
	}
	findMessage(t, diags, models.DiagnosticWarning, `No need to repeat a "COACH" user row`)

	var dana *models.User
	for i := range roster.Users {
		if roster.Users[i].Email == "not-an-email" {
			dana = &roster.Users[i]
		}
	}
	if dana == nil {
		t.Fatal("coach with an invalid email should still be registered")
	}
	if dana.EmailValid {
		t.Error("EmailValid = true for an unparseable address")
	}
}

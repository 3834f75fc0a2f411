package notify

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tns-project/tns-server/models"
)

func testUser(first, email string, valid bool) *models.User {
	return &models.User{
		FirstName:  first,
		Email:      email,
		Role:       models.RoleAthlete,
		EmailValid: valid,
	}
}

func testMatch(number int) models.MatchInfo {
	return models.MatchInfo{
		Number:   number,
		Division: "A",
		Round:    "Final",
		Status:   "Upcoming",
		Blue:     models.MatchTeam{Name: "Central A1", School: "Central", Number: 1, Valid: true},
		Red:      models.MatchTeam{Name: "North A2", School: "North", Number: 2, Valid: true},
	}
}

// testCompiler resolves Central A1 and North A2 and fails everything else.
func testCompiler() *Compiler {
	teams := map[models.TeamKey]*models.ResolvedTeam{
		{School: "Central", Division: "A", Number: 1}: {
			Key:   models.TeamKey{School: "Central", Division: "A", Number: 1},
			Light: testUser("Ana", "ana@central.edu", true),
			Heavy: testUser("Ben", "ben@central.edu", true),
		},
		{School: "North", Division: "A", Number: 2}: {
			Key:    models.TeamKey{School: "North", Division: "A", Number: 2},
			Middle: testUser("Cam", "cam@north.edu", true),
		},
	}
	return &Compiler{
		Teams: func(key models.TeamKey) (*models.ResolvedTeam, error) {
			team, ok := teams[key]
			if !ok {
				return nil, errors.New("team not found")
			}
			return team, nil
		},
	}
}

func compileOne(t *testing.T, c *Compiler, subject string, match models.MatchInfo) *MatchResult {
	t.Helper()
	batch := c.Compile(subject, []models.MatchInfo{match})
	if len(batch.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(batch.Results))
	}
	return batch.Results[0]
}

func TestCompileSharedSubject(t *testing.T) {
	result := compileOne(t, testCompiler(), "Match {match} starting!", testMatch(5))

	if result.State != StateValid {
		t.Fatalf("state = %s, reason = %q", result.State, result.Reason)
	}
	if len(result.Directives) != 1 {
		t.Fatalf("same rendered subject should emit one directive, got %d", len(result.Directives))
	}
	d := result.Directives[0]
	if d.Subject != "Match 5 starting!" {
		t.Errorf("subject = %q", d.Subject)
	}
	want := []string{"ana@central.edu", "ben@central.edu", "cam@north.edu"}
	if !reflect.DeepEqual(d.Recipients, want) {
		t.Errorf("recipients = %v, want %v", d.Recipients, want)
	}
	if d.MatchNumber == nil || *d.MatchNumber != 5 {
		t.Errorf("match number = %v", d.MatchNumber)
	}
	if d.Description != "Match 5" {
		t.Errorf("description = %q", d.Description)
	}
}

func TestCompilePerSideSubjects(t *testing.T) {
	result := compileOne(t, testCompiler(), "Match {match}: {team} is up", testMatch(5))

	if len(result.Directives) != 2 {
		t.Fatalf("per-team subjects should emit two directives, got %d", len(result.Directives))
	}
	blue, red := result.Directives[0], result.Directives[1]
	if blue.Subject != "Match 5: Central A1 is up" || red.Subject != "Match 5: North A2 is up" {
		t.Errorf("subjects = %q, %q", blue.Subject, red.Subject)
	}
	if !reflect.DeepEqual(blue.Recipients, []string{"ana@central.edu", "ben@central.edu"}) {
		t.Errorf("blue recipients = %v", blue.Recipients)
	}
	if !reflect.DeepEqual(red.Recipients, []string{"cam@north.edu"}) {
		t.Errorf("red recipients = %v", red.Recipients)
	}
	if blue.Description != "Match 5, blue team" || red.Description != "Match 5, red team" {
		t.Errorf("descriptions = %q, %q", blue.Description, red.Description)
	}
}

func TestCompileExtraRecipients(t *testing.T) {
	c := testCompiler()
	c.Settings = Settings{SendToCoaches: true, SendToSubscribers: true}
	c.SchoolEmails = func(school string, roles []models.UserRole) []string {
		if school != "Central" {
			return nil
		}
		if len(roles) != 1 || roles[0] != models.RoleCoach {
			t.Errorf("roles = %v", roles)
		}
		return []string{"coach@central.edu"}
	}
	c.Subscribers = func(key models.TeamKey) []string {
		if key.School == "Central" {
			// overlaps with a member email; must not duplicate
			return []string{"fan@example.com", "ana@central.edu"}
		}
		return nil
	}

	result := compileOne(t, c, "Match {match}: {team} is up", testMatch(5))
	blue := result.Directives[0]
	want := []string{"ana@central.edu", "ben@central.edu", "coach@central.edu", "fan@example.com"}
	if !reflect.DeepEqual(blue.Recipients, want) {
		t.Errorf("blue recipients = %v, want %v", blue.Recipients, want)
	}
}

func TestCompileFirstFailureWins(t *testing.T) {
	// same teams on both sides trumps every later check
	match := testMatch(7)
	match.Red = match.Blue
	match.Round = ""
	result := compileOne(t, testCompiler(), "Match {match}!", match)
	if result.State != StateInvalid || result.Reason != "Both teams are the same" {
		t.Errorf("state = %s, reason = %q", result.State, result.Reason)
	}

	// missing fields trump team resolution
	match = testMatch(8)
	match.Division = ""
	match.Status = ""
	result = compileOne(t, testCompiler(), "Match {match}!", match)
	if result.Reason != "Missing Division, Status" {
		t.Errorf("reason = %q", result.Reason)
	}
}

func TestCompileUnresolvedTeams(t *testing.T) {
	match := testMatch(9)
	match.Red = models.MatchTeam{Name: "South A9", School: "South", Number: 9, Valid: true}
	result := compileOne(t, testCompiler(), "Match {match}!", match)
	if result.Reason != `Could not find red team "South A9"` {
		t.Errorf("reason = %q", result.Reason)
	}

	match.Blue = models.MatchTeam{Name: "???", Valid: false}
	result = compileOne(t, testCompiler(), "Match {match}!", match)
	if result.Reason != `Could not find blue team "???" and red team "South A9"` {
		t.Errorf("reason = %q", result.Reason)
	}

	// two distinct unparseable cells both carry zero-valued keys and
	// must not be mistaken for the same team
	match = testMatch(11)
	match.Blue = models.MatchTeam{Name: "garbage one", Valid: false}
	match.Red = models.MatchTeam{Name: "other garbage", Valid: false}
	result = compileOne(t, testCompiler(), "Match {match}!", match)
	if result.Reason != `Could not find blue team "garbage one" and red team "other garbage"` {
		t.Errorf("reason = %q", result.Reason)
	}
}

func TestCompileNoValidEmails(t *testing.T) {
	c := testCompiler()
	empty := &models.ResolvedTeam{
		Key:   models.TeamKey{School: "Hollow", Division: "A", Number: 3},
		Light: testUser("Eve", "eve@hollow.edu", false),
	}
	inner := c.Teams
	c.Teams = func(key models.TeamKey) (*models.ResolvedTeam, error) {
		if key.School == "Hollow" {
			return empty, nil
		}
		return inner(key)
	}

	match := testMatch(10)
	match.Red = models.MatchTeam{Name: "Hollow A3", School: "Hollow", Number: 3, Valid: true}
	result := compileOne(t, c, "Match {match}!", match)
	if result.Reason != "No valid emails for red team" {
		t.Errorf("reason = %q", result.Reason)
	}

	match.Blue = match.Red
	match.Blue.Number = 4
	c.Teams = func(models.TeamKey) (*models.ResolvedTeam, error) { return empty, nil }
	result = compileOne(t, c, "Match {match}!", match)
	if result.Reason != "No valid emails for both teams" {
		t.Errorf("reason = %q", result.Reason)
	}
}

func TestCompileBatchContinuesPastFailures(t *testing.T) {
	bad := testMatch(1)
	bad.Red = bad.Blue
	good := testMatch(2)

	batch := testCompiler().Compile("Match {match}!", []models.MatchInfo{bad, good, good})

	if len(batch.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(batch.Results))
	}
	if batch.Results[0].State != StateInvalid || batch.Results[1].State != StateValid {
		t.Errorf("states = %s, %s", batch.Results[0].State, batch.Results[1].State)
	}
	if msgs := batch.Diagnostics[models.DiagnosticError][1]; len(msgs) != 1 {
		t.Errorf("error diagnostics for match 1 = %v", msgs)
	}
	if msgs := batch.Diagnostics[models.DiagnosticWarning][2]; !reflect.DeepEqual(msgs, []string{"Repeated match number"}) {
		t.Errorf("warning diagnostics for match 2 = %v", msgs)
	}
	if got := len(batch.Directives()); got != 1 {
		t.Errorf("directives = %d, want 1", got)
	}
}

func TestRecordSendResult(t *testing.T) {
	result := compileOne(t, testCompiler(), "Match {match}: {team} is up", testMatch(5))

	result.RecordSendResult(nil)
	if result.State != StateSent {
		t.Errorf("state after success = %s", result.State)
	}
	result.RecordSendResult(errors.New("campaign rejected"))
	if result.State != StateSendFailed {
		t.Errorf("state after failure = %s", result.State)
	}
	// a later success does not mask the earlier failure
	result.RecordSendResult(nil)
	if result.State != StateSendFailed {
		t.Errorf("state after late success = %s", result.State)
	}
}

func TestCompileBlast(t *testing.T) {
	d, err := CompileBlast("Tournament update!", BlastToTag{Tag: "tns-all"}, nil)
	if err != nil {
		t.Fatalf("tag blast: %v", err)
	}
	if d.Recipients != nil || d.Description != `Blast to tag "tns-all"` {
		t.Errorf("directive = %+v", d)
	}

	d, err = CompileBlast("Tournament update!", BlastToDivision{Division: "A"}, func(division string) ([]string, error) {
		if division != "A" {
			t.Errorf("division = %q", division)
		}
		return []string{"b@x.edu", "a@x.edu", "b@x.edu"}, nil
	})
	if err != nil {
		t.Fatalf("division blast: %v", err)
	}
	if !reflect.DeepEqual(d.Recipients, []string{"a@x.edu", "b@x.edu"}) {
		t.Errorf("recipients = %v", d.Recipients)
	}

	if _, err := CompileBlast("x", BlastToDivision{Division: "Z"}, func(string) ([]string, error) {
		return nil, nil
	}); err == nil {
		t.Error("empty division should error")
	}
}

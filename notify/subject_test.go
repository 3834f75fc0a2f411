package notify

import (
	"strings"
	"testing"

	"github.com/tns-project/tns-server/models"
)

func TestValidateSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"Match {match} starting!", "Match {match} starting!"},
		{"Match {MATCH}: {Team} vs...", "Match {match}: {team} vs..."},
		{"{match} {division} {round} {blueteam} {redteam} {team}",
			"{match} {division} {round} {blueteam} {redteam} {team}"},
		{"[TNS] Match #{match} (ring 2)", "[TNS] Match #{match} (ring 2)"},
	}
	for _, tt := range tests {
		got, err := ValidateSubject(tt.subject, false)
		if err != nil {
			t.Errorf("ValidateSubject(%q) error: %v", tt.subject, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateSubject(%q) = %q, want %q", tt.subject, got, tt.want)
		}
	}
}

func TestValidateSubjectErrors(t *testing.T) {
	tests := []struct {
		subject string
		substr  string
	}{
		{"Hello there", `Missing "{match}" placeholder`},
		{"Match {match", "unclosed placeholder"},
		{"Match {}", "empty placeholder"},
		{"Match {m{atch}", "nested placeholder"},
		{"Match match}", "not in a placeholder"},
		{"Match {venue}", `unknown placeholder "venue"`},
		{"Match {ma tch}", "invalid character inside placeholder"},
		{"Match {match} @ ring", "invalid character: @"},
	}
	for _, tt := range tests {
		_, err := ValidateSubject(tt.subject, false)
		if err == nil || !strings.Contains(err.Error(), tt.substr) {
			t.Errorf("ValidateSubject(%q) error = %v, want containing %q", tt.subject, err, tt.substr)
		}
	}
}

func TestValidateSubjectBlast(t *testing.T) {
	got, err := ValidateSubject("Tournament update!", true)
	if err != nil {
		t.Fatalf("plain blast subject: %v", err)
	}
	if got != "Tournament update!" {
		t.Errorf("got %q", got)
	}
	if _, err := ValidateSubject("Update {match}", true); err == nil ||
		!strings.Contains(err.Error(), "no placeholders in blast email subject") {
		t.Errorf("blast with placeholder: error = %v", err)
	}
	if _, err := ValidateSubject("Update}", true); err == nil ||
		!strings.Contains(err.Error(), "invalid character") {
		t.Errorf("blast with close bracket: error = %v", err)
	}
}

func TestRenderSubjects(t *testing.T) {
	match := models.MatchInfo{
		Number:   102,
		Division: "A",
		Round:    "Quarterfinal",
		Blue:     models.MatchTeam{Name: "Central A1", School: "Central", Number: 1, Valid: true},
		Red:      models.MatchTeam{Name: "North A2", School: "North", Number: 2, Valid: true},
	}

	blue, red := RenderSubjects("Match {match} ({division} {round}): {blueteam} vs {redteam}", match)
	want := "Match 102 (A Quarterfinal): Central A1 vs North A2"
	if blue != want || red != want {
		t.Errorf("blue = %q, red = %q, want both %q", blue, red, want)
	}

	blue, red = RenderSubjects("Match {match}: your team {team} is up", match)
	if blue != "Match 102: your team Central A1 is up" {
		t.Errorf("blue = %q", blue)
	}
	if red != "Match 102: your team North A2 is up" {
		t.Errorf("red = %q", red)
	}
	if blue == red {
		t.Error("per-side subjects should differ when {team} is used")
	}
}

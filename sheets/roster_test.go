package sheets

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tns-project/tns-server/models"
)

func rosterGrid(rows ...[]string) [][]string {
	header := []string{"First Name", "Last Name", "Email", "Role", "School", "Team Code", "Fighting Weight Class"}
	return append([][]string{header}, rows...)
}

func TestParseRosterGrid(t *testing.T) {
	grid := rosterGrid(
		[]string{" Ana ", "Lee", "ana@x.edu", "ATHLETE", "Central", "A1", "light"},
		[]string{"Dana", "Kim", "dana@x.edu", "COACH", "Central", "", ""},
	)
	rows, err := ParseRosterGrid(grid)
	if err != nil {
		t.Fatalf("ParseRosterGrid: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := models.RosterRow{
		RowNum:      2,
		FirstName:   "Ana",
		LastName:    "Lee",
		Email:       "ana@x.edu",
		Role:        "ATHLETE",
		School:      "Central",
		TeamCode:    "A1",
		WeightClass: "light",
	}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("row = %+v, want %+v", rows[0], want)
	}
	if rows[1].RowNum != 3 || rows[1].TeamCode != "" {
		t.Errorf("second row = %+v", rows[1])
	}
}

func TestParseRosterGridShortRows(t *testing.T) {
	// missing trailing cells are treated as empty
	rows, err := ParseRosterGrid(rosterGrid([]string{"Ana", "Lee", "ana@x.edu", "ATHLETE", "Central"}))
	if err != nil {
		t.Fatalf("ParseRosterGrid: %v", err)
	}
	if rows[0].TeamCode != "" || rows[0].WeightClass != "" {
		t.Errorf("row = %+v", rows[0])
	}
	if len(rows[0].MissingRequired) != 0 {
		t.Errorf("missing required = %v", rows[0].MissingRequired)
	}
}

func TestParseRosterGridMissingRequired(t *testing.T) {
	rows, err := ParseRosterGrid(rosterGrid(
		[]string{"", "", "", "ATHLETE", "", "A1", ""},
		[]string{"Ana", "", "ana@x.edu", "ATHLETE", "Central", "A1", "light"},
	))
	if err != nil {
		t.Fatalf("ParseRosterGrid: %v", err)
	}
	if want := []string{`"name"`, `"email"`, `"school"`}; !reflect.DeepEqual(rows[0].MissingRequired, want) {
		t.Errorf("missing required = %v, want %v", rows[0].MissingRequired, want)
	}
	// one of the two name cells is enough
	if len(rows[1].MissingRequired) != 0 {
		t.Errorf("missing required = %v", rows[1].MissingRequired)
	}
}

func TestParseRosterGridHeaderErrors(t *testing.T) {
	_, err := ParseRosterGrid(nil)
	if err == nil || !strings.Contains(err.Error(), "Empty roster worksheet") {
		t.Errorf("empty grid: %v", err)
	}

	_, err = ParseRosterGrid([][]string{
		{"First Name", "Last Name", "Email", "Role", "School"},
		{"Ana", "Lee", "ana@x.edu", "ATHLETE", "Central"},
	})
	if err == nil || !strings.Contains(err.Error(), `missing headers "team code", "fighting weight class"`) {
		t.Errorf("missing headers: %v", err)
	}

	_, err = ParseRosterGrid([][]string{
		{"First Name", "Last Name", "Email", "Email", "Role", "School", "Team Code", "Fighting Weight Class"},
		{"Ana", "Lee", "ana@x.edu", "", "ATHLETE", "Central", "", ""},
	})
	if err == nil || !strings.Contains(err.Error(), `repeated headers "email"`) {
		t.Errorf("repeated headers: %v", err)
	}
}

func TestParseMatchesGrid(t *testing.T) {
	grid := [][]string{
		{"TMS EXPORT", "", "", "", "", ""},
		{"Match Number", "Division", "Round", "Status", "Blue Team", "Red Team"},
		{"101", "A", "Final", "Upcoming", "Central A1", "North A2"},
		{"", "A", "Final", "", "", ""},
		{"102", "B", "Semifinal", "Done", "South B3", "???"},
	}
	matches, err := ParseMatchesGrid(grid)
	if err != nil {
		t.Fatalf("ParseMatchesGrid: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches (blank number skipped), got %d", len(matches))
	}
	first := matches[0]
	if first.Number != 101 || first.Division != "A" || first.Round != "Final" || first.Status != "Upcoming" {
		t.Errorf("match = %+v", first)
	}
	if first.Blue != (models.MatchTeam{Name: "Central A1", School: "Central", Number: 1, Valid: true}) {
		t.Errorf("blue = %+v", first.Blue)
	}
	if matches[1].Red != (models.MatchTeam{Name: "???"}) {
		t.Errorf("unparseable red team should be invalid: %+v", matches[1].Red)
	}
}

func TestParseMatchesGridNoHeader(t *testing.T) {
	_, err := ParseMatchesGrid([][]string{{"nothing", "useful"}})
	if err == nil || !strings.Contains(err.Error(), "header row not found") {
		t.Errorf("err = %v", err)
	}
}

func TestParseTeamCell(t *testing.T) {
	tests := []struct {
		raw  string
		want models.MatchTeam
	}{
		{"Central A1", models.MatchTeam{Name: "Central A1", School: "Central", Number: 1, Valid: true}},
		{"Bay Area PA3", models.MatchTeam{Name: "Bay Area PA3", School: "Bay Area", Number: 3, Valid: true}},
		{"Central A12", models.MatchTeam{Name: "Central A12", School: "Central", Number: 12, Valid: true}},
		{"A1", models.MatchTeam{Name: "A1"}},
		{"", models.MatchTeam{}},
	}
	for _, tt := range tests {
		if got := ParseTeamCell(tt.raw); got != tt.want {
			t.Errorf("ParseTeamCell(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

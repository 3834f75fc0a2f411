package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tns-project/tns-server/models"
)

// MatchesWorksheetName is the worksheet holding the match list.
const MatchesWorksheetName = "MATCHES"

var matchesRequiredColumns = []string{
	"match number", "division", "round", "status", "blue team", "red team",
}

// teamCellPattern splits "<school> <division><number>", e.g.
// "Central A1" or "Bay Area PA3". The team code is the last token so the
// school may contain spaces.
var teamCellPattern = regexp.MustCompile(`^(.*\S)\s+([A-Za-z']+?)([0-9]+)$`)

// FetchMatches reads and parses the matches worksheet.
func (c *Client) FetchMatches(ctx context.Context, spreadsheetID string) ([]models.MatchInfo, error) {
	grid, err := c.FetchGrid(ctx, spreadsheetID, MatchesWorksheetName, "Matches spreadsheet")
	if err != nil {
		return nil, err
	}
	return ParseMatchesGrid(grid)
}

// ParseMatchesGrid parses the matches worksheet grid. The header row is
// the first row containing all required headers (case-insensitive);
// everything above it is ignored, everything below is match data. Note
// that the first such row wins even when a header repeats further down.
// Rows without a parseable match number are skipped; other missing or
// malformed fields are kept raw so the notification compiler can report
// them per match.
func ParseMatchesGrid(grid [][]string) ([]models.MatchInfo, error) {
	headerIndex, dataRows := findMatchesHeader(grid)
	if headerIndex == nil {
		return nil, fmt.Errorf("Invalid matches worksheet %q: header row not found", MatchesWorksheetName)
	}

	cell := func(row []string, header string) string {
		i := headerIndex[header]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var matches []models.MatchInfo
	for _, raw := range dataRows {
		number, err := strconv.Atoi(cell(raw, "match number"))
		if err != nil {
			continue
		}
		matches = append(matches, models.MatchInfo{
			Number:   number,
			Division: cell(raw, "division"),
			Round:    cell(raw, "round"),
			Status:   cell(raw, "status"),
			Blue:     ParseTeamCell(cell(raw, "blue team")),
			Red:      ParseTeamCell(cell(raw, "red team")),
		})
	}
	return matches, nil
}

func findMatchesHeader(grid [][]string) (map[string]int, [][]string) {
	for rowIdx, row := range grid {
		index := make(map[string]int)
		for i, header := range row {
			normalized := strings.ToLower(strings.TrimSpace(header))
			if _, seen := index[normalized]; !seen {
				index[normalized] = i
			}
		}
		complete := true
		for _, header := range matchesRequiredColumns {
			if _, ok := index[header]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return index, grid[rowIdx+1:]
		}
	}
	return nil, nil
}

// ParseTeamCell parses a "<school> <teamcode>" cell into a match team.
// The raw text is always kept as the display name; an unparseable cell
// yields an invalid team.
func ParseTeamCell(raw string) models.MatchTeam {
	team := models.MatchTeam{Name: raw}
	match := teamCellPattern.FindStringSubmatch(raw)
	if match == nil {
		return team
	}
	number, err := strconv.Atoi(match[3])
	if err != nil {
		return team
	}
	team.School = match[1]
	team.Number = number
	team.Valid = true
	return team
}

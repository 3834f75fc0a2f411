package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/tns-project/tns-server/models"
)

// RosterWorksheetName is the worksheet holding the full roster.
const RosterWorksheetName = "FULL ROSTER"

var (
	rosterRequiredColumns = []string{"first name", "last name", "email", "role", "school"}
	rosterOptionalColumns = []string{"team code", "fighting weight class"}
)

// FetchRosterRows reads and parses the roster worksheet.
func (c *Client) FetchRosterRows(ctx context.Context, spreadsheetID string) ([]models.RosterRow, error) {
	grid, err := c.FetchGrid(ctx, spreadsheetID, RosterWorksheetName, "Roster spreadsheet")
	if err != nil {
		return nil, err
	}
	return ParseRosterGrid(grid)
}

// ParseRosterGrid splits a raw worksheet grid into roster rows. The
// first row must uniquely contain all required and optional headers
// (case-insensitive); every cell is trimmed. Missing required values are
// recorded on the row rather than failing the parse, so the roster
// builder can report them per row. First and last name are individually
// optional; only both empty counts as a missing "name".
func ParseRosterGrid(grid [][]string) ([]models.RosterRow, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("Empty roster worksheet %q", RosterWorksheetName)
	}
	headerRow, dataRows := grid[0], grid[1:]
	if len(dataRows) == 0 {
		return nil, fmt.Errorf("Empty roster worksheet %q", RosterWorksheetName)
	}

	headerIndex := make(map[string]int)
	repeated := make(map[string]bool)
	for i, header := range headerRow {
		normalized := strings.ToLower(strings.TrimSpace(header))
		if _, seen := headerIndex[normalized]; seen {
			repeated[normalized] = true
		} else {
			headerIndex[normalized] = i
		}
	}
	var nonUnique, missing []string
	for _, header := range append(append([]string(nil), rosterRequiredColumns...), rosterOptionalColumns...) {
		if repeated[header] {
			nonUnique = append(nonUnique, fmt.Sprintf("%q", header))
		} else if _, ok := headerIndex[header]; !ok {
			missing = append(missing, fmt.Sprintf("%q", header))
		}
	}
	if len(nonUnique) > 0 {
		return nil, fmt.Errorf("Invalid roster worksheet %q: repeated headers %s",
			RosterWorksheetName, strings.Join(nonUnique, ", "))
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Invalid roster worksheet %q: missing headers %s",
			RosterWorksheetName, strings.Join(missing, ", "))
	}

	cell := func(row []string, header string) string {
		i := headerIndex[header]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rows := make([]models.RosterRow, 0, len(dataRows))
	for i, raw := range dataRows {
		row := models.RosterRow{
			RowNum:      i + 2, // 1-based, after the header row
			FirstName:   cell(raw, "first name"),
			LastName:    cell(raw, "last name"),
			Email:       cell(raw, "email"),
			Role:        cell(raw, "role"),
			School:      cell(raw, "school"),
			TeamCode:    cell(raw, "team code"),
			WeightClass: cell(raw, "fighting weight class"),
		}
		if row.FirstName == "" && row.LastName == "" {
			row.MissingRequired = append(row.MissingRequired, `"name"`)
		}
		for _, required := range []struct{ header, value string }{
			{"email", row.Email},
			{"role", row.Role},
			{"school", row.School},
		} {
			if required.value == "" {
				row.MissingRequired = append(row.MissingRequired, fmt.Sprintf("%q", required.header))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

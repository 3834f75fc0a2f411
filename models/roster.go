package models

type DiagnosticLevel string

const (
	DiagnosticInfo    DiagnosticLevel = "INFO"
	DiagnosticWarning DiagnosticLevel = "WARNING"
	DiagnosticError   DiagnosticLevel = "ERROR"
)

// RosterDiagnostic is a single log entry produced while building the
// roster. RowNum is nil for diagnostics not tied to a single row (e.g.
// the post-pass checks).
type RosterDiagnostic struct {
	Level   DiagnosticLevel `json:"level"`
	RowNum  *int            `json:"row_num"`
	Message string          `json:"message"`
}

// RosterRow is one pre-tokenized spreadsheet row. The spreadsheet
// reader has already trimmed every cell and recorded which required
// columns were empty; optional columns are empty strings when absent.
type RosterRow struct {
	RowNum          int
	MissingRequired []string
	FirstName       string
	LastName        string
	Email           string
	Role            string
	School          string
	TeamCode        string
	WeightClass     string
}

// Roster is the validated output of a roster build. Schools and users
// keep first-seen order; teams exclude any team that ended up with
// alternates only.
type Roster struct {
	Schools []string `json:"schools"`
	Users   []User   `json:"users"`
	Teams   []Team   `json:"teams"`
}

package models

// SendDirective is one compiled email send. MatchNumber is nil for
// blast sends. Recipients are deduplicated.
type SendDirective struct {
	Subject     string   `json:"subject"`
	Recipients  []string `json:"recipients"`
	MatchNumber *int     `json:"match_number,omitempty"`
	Description string   `json:"description"`
}

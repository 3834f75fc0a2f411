package models

import "time"

// SentEmail records one match notification that was handed to the
// campaign sender. Recipients are stored as a typed list; the storage
// layer serializes them at its own boundary.
type SentEmail struct {
	ID           int       `json:"id"`
	MatchNumber  int       `json:"match_number"`
	TemplateName string    `json:"template_name"`
	Subject      string    `json:"subject"`
	TimeSent     time.Time `json:"time_sent"`
	Recipients   []string  `json:"recipients"`
}

// BlastSentEmail records one blast send. Recipient describes the
// audience segment, e.g. `tag "Coaches"` or `division "A"`.
type BlastSentEmail struct {
	ID           int       `json:"id"`
	TemplateName string    `json:"template_name"`
	Subject      string    `json:"subject"`
	TimeSent     time.Time `json:"time_sent"`
	Recipient    string    `json:"recipient"`
}

// SentEmailReport is one row of the combined sent-emails report.
type SentEmailReport struct {
	TemplateName string    `json:"template_name"`
	Subject      string    `json:"subject"`
	TimeSent     time.Time `json:"time_sent"`
	Blast        bool      `json:"blast"`
	MatchNumber  *int      `json:"match_number,omitempty"`
	Recipients   []string  `json:"recipients,omitempty"`
	Recipient    string    `json:"recipient,omitempty"`
}

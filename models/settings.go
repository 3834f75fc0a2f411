package models

import "time"

// Settings is the operational state the admin configures at runtime,
// persisted as a single row. Static deployment config (ports, database,
// object storage credentials) lives in the process environment instead.
type Settings struct {
	TMSSpreadsheetID         string     `json:"tms_spreadsheet_id"`
	MailchimpAPIKey          string     `json:"-"`
	MailchimpAudienceID      string     `json:"mailchimp_audience_id"`
	MailchimpAudienceTag     string     `json:"mailchimp_audience_tag"`
	MailchimpMatchTemplateID string     `json:"mailchimp_match_template_id"`
	MailchimpBlastTemplateID string     `json:"mailchimp_blast_template_id"`
	MatchSubject             string     `json:"match_subject"`
	BlastSubject             string     `json:"blast_subject"`
	LastMatchesQuery         string     `json:"last_matches_query"`
	SendToCoaches            bool       `json:"send_to_coaches"`
	SendToSpectators         bool       `json:"send_to_spectators"`
	SendToSubscribers        bool       `json:"send_to_subscribers"`
	RosterLastFetched        *time.Time `json:"roster_last_fetched"`
}

// HasMailchimp reports whether the Mailchimp integration is usable.
func (s *Settings) HasMailchimp() bool {
	return s.MailchimpAPIKey != "" && s.MailchimpAudienceID != ""
}

// SettingsPatch is a typed partial update of Settings. Nil fields are
// left untouched.
type SettingsPatch struct {
	TMSSpreadsheetID         *string    `json:"tms_spreadsheet_id,omitempty"`
	MailchimpAPIKey          *string    `json:"mailchimp_api_key,omitempty"`
	MailchimpAudienceID      *string    `json:"mailchimp_audience_id,omitempty"`
	MailchimpAudienceTag     *string    `json:"mailchimp_audience_tag,omitempty"`
	MailchimpMatchTemplateID *string    `json:"mailchimp_match_template_id,omitempty"`
	MailchimpBlastTemplateID *string    `json:"mailchimp_blast_template_id,omitempty"`
	MatchSubject             *string    `json:"match_subject,omitempty"`
	BlastSubject             *string    `json:"blast_subject,omitempty"`
	LastMatchesQuery         *string    `json:"last_matches_query,omitempty"`
	SendToCoaches            *bool      `json:"send_to_coaches,omitempty"`
	SendToSpectators         *bool      `json:"send_to_spectators,omitempty"`
	SendToSubscribers        *bool      `json:"send_to_subscribers,omitempty"`
	RosterLastFetched        *time.Time `json:"roster_last_fetched,omitempty"`
}

// Apply applies the patch to the settings and reports whether anything
// actually changed.
func (p SettingsPatch) Apply(s *Settings) bool {
	changed := false
	applyString := func(dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = true
		}
	}
	applyBool := func(dst *bool, src *bool) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = true
		}
	}

	applyString(&s.TMSSpreadsheetID, p.TMSSpreadsheetID)
	applyString(&s.MailchimpAPIKey, p.MailchimpAPIKey)
	applyString(&s.MailchimpAudienceID, p.MailchimpAudienceID)
	applyString(&s.MailchimpAudienceTag, p.MailchimpAudienceTag)
	applyString(&s.MailchimpMatchTemplateID, p.MailchimpMatchTemplateID)
	applyString(&s.MailchimpBlastTemplateID, p.MailchimpBlastTemplateID)
	applyString(&s.MatchSubject, p.MatchSubject)
	applyString(&s.BlastSubject, p.BlastSubject)
	applyString(&s.LastMatchesQuery, p.LastMatchesQuery)
	applyBool(&s.SendToCoaches, p.SendToCoaches)
	applyBool(&s.SendToSpectators, p.SendToSpectators)
	applyBool(&s.SendToSubscribers, p.SendToSubscribers)

	if p.RosterLastFetched != nil {
		if s.RosterLastFetched == nil || !s.RosterLastFetched.Equal(*p.RosterLastFetched) {
			t := *p.RosterLastFetched
			s.RosterLastFetched = &t
			changed = true
		}
	}
	return changed
}

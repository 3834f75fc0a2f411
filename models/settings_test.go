package models

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestSettingsPatchApply(t *testing.T) {
	settings := Settings{
		TMSSpreadsheetID: "sheet-1",
		SendToCoaches:    true,
	}

	patch := SettingsPatch{
		TMSSpreadsheetID: strPtr("sheet-2"),
		MailchimpAPIKey:  strPtr("key-us1"),
		SendToCoaches:    boolPtr(false),
	}
	if !patch.Apply(&settings) {
		t.Fatal("Apply() = false, want true")
	}
	if settings.TMSSpreadsheetID != "sheet-2" {
		t.Errorf("TMSSpreadsheetID = %q, want %q", settings.TMSSpreadsheetID, "sheet-2")
	}
	if settings.MailchimpAPIKey != "key-us1" {
		t.Errorf("MailchimpAPIKey = %q, want %q", settings.MailchimpAPIKey, "key-us1")
	}
	if settings.SendToCoaches {
		t.Error("SendToCoaches = true, want false")
	}
}

func TestSettingsPatchApplyNoChange(t *testing.T) {
	settings := Settings{TMSSpreadsheetID: "sheet-1", SendToSubscribers: true}

	if (SettingsPatch{}).Apply(&settings) {
		t.Error("empty patch reported a change")
	}

	same := SettingsPatch{
		TMSSpreadsheetID:  strPtr("sheet-1"),
		SendToSubscribers: boolPtr(true),
	}
	if same.Apply(&settings) {
		t.Error("patch with identical values reported a change")
	}
}

func TestSettingsPatchApplyRosterLastFetched(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	var settings Settings
	patch := SettingsPatch{RosterLastFetched: &now}
	if !patch.Apply(&settings) {
		t.Fatal("Apply() = false, want true")
	}
	if settings.RosterLastFetched == nil || !settings.RosterLastFetched.Equal(now) {
		t.Errorf("RosterLastFetched = %v, want %v", settings.RosterLastFetched, now)
	}

	// same instant again is not a change
	if patch.Apply(&settings) {
		t.Error("patch with same timestamp reported a change")
	}
}

func TestHasMailchimp(t *testing.T) {
	s := Settings{}
	if s.HasMailchimp() {
		t.Error("empty settings report Mailchimp as configured")
	}
	s.MailchimpAPIKey = "key-us1"
	if s.HasMailchimp() {
		t.Error("settings without an audience report Mailchimp as configured")
	}
	s.MailchimpAudienceID = "aud1"
	if !s.HasMailchimp() {
		t.Error("configured settings report Mailchimp as missing")
	}
}

package utils

import "testing"

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"ana@central.edu",
		"first.last+tag@example.co.uk",
		"a_b-c@mail-host.org",
	}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = false, want true", email)
		}
	}

	invalid := []string{
		"",
		"plainaddress",
		"@missinguser.com",
		"user@",
		"user@nodot",
		"user name@example.com",
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = true, want false", email)
		}
	}
}

package models

import "strings"

type School struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func normalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

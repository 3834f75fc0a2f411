package models

// Subscription subscribes an email address to one team's match
// notifications.
type Subscription struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	School   string `json:"school"`
	Division string `json:"division"`
	Number   int    `json:"number"`
}

func (s Subscription) TeamKey() TeamKey {
	return TeamKey{School: s.School, Division: s.Division, Number: s.Number}
}

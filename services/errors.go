package services

import "errors"

// Errors shared between services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// validation and business rules
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrSpreadsheetNotSet      = errors.New("no spreadsheet id in settings")
	ErrSpreadsheetNotFound    = errors.New("spreadsheet not found")
	ErrRosterEmpty            = errors.New("roster is empty")
	ErrNoRosterFetched        = errors.New("no roster has been fetched yet")
	ErrMatchesQueryInvalid    = errors.New("invalid matches query")
	ErrSubjectInvalid         = errors.New("invalid email subject")
	ErrNoMatchesGiven         = errors.New("no matches given")
	ErrNoValidMatchesGiven    = errors.New("no valid matches given")
	ErrAllSendsFailed         = errors.New("all emails failed to send")
	ErrNoMailchimpAPIKey      = errors.New("no Mailchimp API key in settings")
	ErrNoMailchimpAudience    = errors.New("no selected Mailchimp audience")
	ErrInvalidTemplateID      = errors.New("invalid template id")
	ErrBlastTargetRequired    = errors.New("exactly one blast target must be given")
	ErrSubscriptionTeamAbsent = errors.New("subscription team not in roster")

	// conflicts
	ErrAdminEmailConflict   = errors.New("email address is already in use")
	ErrSubscriptionConflict = errors.New("subscription already exists")

	// authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// entity specific not-found errors
	ErrAdminNotFound        = errors.New("admin not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrTeamNotFound         = errors.New("team not found")
)

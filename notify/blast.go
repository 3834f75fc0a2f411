package notify

import (
	"fmt"

	"github.com/tns-project/tns-server/models"
)

// BlastTarget is the destination of a blast email. Exactly one concrete
// target type is used per blast; the variants cannot be combined.
type BlastTarget interface {
	Describe() string
	blastTarget()
}

// BlastToTag sends to a named Mailchimp tag segment.
type BlastToTag struct {
	Tag string
}

func (t BlastToTag) Describe() string { return fmt.Sprintf("tag %q", t.Tag) }
func (BlastToTag) blastTarget()       {}

// BlastToAudience sends to an entire Mailchimp audience.
type BlastToAudience struct{}

func (BlastToAudience) Describe() string { return "entire audience" }
func (BlastToAudience) blastTarget()     {}

// BlastToDivision sends to every valid member and subscriber email of one
// division's teams.
type BlastToDivision struct {
	Division string
}

func (t BlastToDivision) Describe() string { return fmt.Sprintf("division %q", t.Division) }
func (BlastToDivision) blastTarget()       {}

// DivisionEmailLookup aggregates the valid member and subscriber emails
// of every team in a division.
type DivisionEmailLookup func(division string) ([]string, error)

// CompileBlast builds the directive for a blast send. Blasts bypass
// per-match validation; the subject must already be validated with
// ValidateSubject(subject, true). For BlastToDivision the recipient list
// is resolved through divisionEmails; tag and audience targets leave
// Recipients empty because the mailing provider resolves them itself.
func CompileBlast(subject string, target BlastTarget, divisionEmails DivisionEmailLookup) (models.SendDirective, error) {
	directive := models.SendDirective{
		Subject:     subject,
		Description: "Blast to " + target.Describe(),
	}
	division, ok := target.(BlastToDivision)
	if !ok {
		return directive, nil
	}
	emails, err := divisionEmails(division.Division)
	if err != nil {
		return models.SendDirective{}, err
	}
	if len(emails) == 0 {
		return models.SendDirective{}, fmt.Errorf("no valid emails in division %q", division.Division)
	}
	directive.Recipients = dedupeEmails(emails)
	return directive, nil
}

// Package notify compiles match data, roster lookups, and subscription
// settings into deduplicated email send directives.
package notify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tns-project/tns-server/models"
)

// subjectValidChars are the punctuation characters allowed in an email
// subject, in addition to letters, digits, and spaces.
const subjectValidChars = "-_+.,!#&()[]|:;'\"/?"

var subjectPlaceholders = map[string]bool{
	"match":    true,
	"division": true,
	"round":    true,
	"blueteam": true,
	"redteam":  true,
	"team":     true,
}

// ValidateSubject validates an email subject template and returns its
// canonical form with placeholder names lowercased. Match subjects must
// contain a "{match}" placeholder; blast subjects may not contain
// placeholders at all. Errors name the 1-based character position.
func ValidateSubject(subject string, blast bool) (string, error) {
	var out strings.Builder

	inPlaceholder := false
	var placeholder []rune
	hasMatchNumber := false

	runes := []rune(subject)
	for i, c := range runes {
		switch {
		case c == '{':
			if blast {
				return "", fmt.Errorf("Index %d: invalid open bracket: no placeholders in blast email subject", i+1)
			}
			if inPlaceholder {
				return "", fmt.Errorf("Index %d: invalid open bracket: cannot have a nested placeholder", i+1)
			}
			inPlaceholder = true
		case c == '}':
			if blast {
				return "", fmt.Errorf("Index %d: invalid character: %c", i+1, c)
			}
			if !inPlaceholder {
				return "", fmt.Errorf("Index %d: invalid close bracket: not in a placeholder", i+1)
			}
			name := string(placeholder)
			bracketIndex := i - len(placeholder)
			if name == "" {
				return "", fmt.Errorf("Index %d: empty placeholder", bracketIndex)
			}
			if name == "match" {
				hasMatchNumber = true
			} else if !subjectPlaceholders[name] {
				return "", fmt.Errorf("Index %d: unknown placeholder %q", bracketIndex, name)
			}
			inPlaceholder = false
			placeholder = placeholder[:0]
		case inPlaceholder:
			if !unicode.IsLetter(c) {
				return "", fmt.Errorf("Index %d: invalid character inside placeholder: %c", i+1, c)
			}
			placeholder = append(placeholder, unicode.ToLower(c))
		default:
			if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != ' ' &&
				!strings.ContainsRune(subjectValidChars, c) {
				return "", fmt.Errorf("Index %d: invalid character: %c", i+1, c)
			}
		}

		if inPlaceholder {
			out.WriteRune(unicode.ToLower(c))
		} else {
			out.WriteRune(c)
		}
	}
	if inPlaceholder {
		bracketIndex := len(runes) - len(placeholder)
		return "", fmt.Errorf("Index %d: unclosed placeholder", bracketIndex)
	}
	if !blast && !hasMatchNumber {
		return "", fmt.Errorf(`Missing "{match}" placeholder`)
	}
	return out.String(), nil
}

// RenderSubjects renders a validated subject template once per side of a
// match, substituting "{team}" with the side's own team name. The two
// results are equal whenever the template does not use "{team}".
func RenderSubjects(subject string, match models.MatchInfo) (blue, red string) {
	blueTeam := match.Blue.Name
	redTeam := match.Red.Name
	common := strings.NewReplacer(
		"{match}", fmt.Sprintf("%d", match.Number),
		"{division}", match.Division,
		"{round}", match.Round,
		"{blueteam}", blueTeam,
		"{redteam}", redTeam,
	).Replace(subject)
	blue = strings.ReplaceAll(common, "{team}", blueTeam)
	red = strings.ReplaceAll(common, "{team}", redTeam)
	return blue, red
}

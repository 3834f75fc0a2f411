package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tns-project/tns-server/mailchimp"
	"github.com/tns-project/tns-server/matchquery"
	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/notify"
	"github.com/tns-project/tns-server/repositories"
)

// workingSegmentName is the static segment reused for every targeted
// send. Its members are replaced before each campaign.
const workingSegmentName = "TNS Notifier"

// MatchSource reads match rows from the configured spreadsheet.
// Satisfied by *sheets.Client.
type MatchSource interface {
	FetchMatches(ctx context.Context, spreadsheetID string) ([]models.MatchInfo, error)
}

// MatchPreview is the dry-run view of a send: which matches would go
// out, to whom, and why the rest would not.
type MatchPreview struct {
	Query       string                 `json:"query"`
	Results     []*notify.MatchResult  `json:"results"`
	Diagnostics notify.Diagnostics     `json:"diagnostics"`
	Directives  []models.SendDirective `json:"directives"`
}

// SendReport is the outcome of a match notification send.
type SendReport struct {
	Query        string                `json:"query"`
	TemplateName string                `json:"template_name"`
	Results      []*notify.MatchResult `json:"results"`
	Diagnostics  notify.Diagnostics    `json:"diagnostics"`
	Sent         int                   `json:"sent"`
	Failed       int                   `json:"failed"`
}

// BlastReport is the outcome of a blast send.
type BlastReport struct {
	TemplateName string `json:"template_name"`
	Subject      string `json:"subject"`
	Recipient    string `json:"recipient"`
	Recipients   int    `json:"recipients,omitempty"`
}

type NotificationService interface {
	// PreviewMatches compiles the matches named by query without
	// sending anything. The canonicalized query is persisted as the
	// last used one.
	PreviewMatches(ctx context.Context, query string) (*MatchPreview, error)
	// SendMatchNotifications compiles and sends one campaign per
	// directive. Individual send failures are recorded per match and
	// do not abort the batch.
	SendMatchNotifications(ctx context.Context, query, subject string) (*SendReport, error)
	SendBlast(ctx context.Context, subject string, target notify.BlastTarget) (*BlastReport, error)
}

type notificationService struct {
	settingsRepo     repositories.SettingsRepository
	rosterRepo       repositories.RosterRepository
	subscriptionRepo repositories.SubscriptionRepository
	sentEmailRepo    repositories.SentEmailRepository
	matches          MatchSource
	provider         *mailchimp.Provider
	parser           matchquery.Parser
	logger           *slog.Logger
}

func NewNotificationService(
	settingsRepo repositories.SettingsRepository,
	rosterRepo repositories.RosterRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	sentEmailRepo repositories.SentEmailRepository,
	matches MatchSource,
	provider *mailchimp.Provider,
	logger *slog.Logger,
) NotificationService {
	return &notificationService{
		settingsRepo:     settingsRepo,
		rosterRepo:       rosterRepo,
		subscriptionRepo: subscriptionRepo,
		sentEmailRepo:    sentEmailRepo,
		matches:          matches,
		provider:         provider,
		parser:           matchquery.Parser{MaxMatches: matchquery.DefaultMaxMatches},
		logger:           logger,
	}
}

func (s *notificationService) PreviewMatches(ctx context.Context, query string) (*MatchPreview, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	numbers, batch, err := s.compileMatches(ctx, settings, query, settings.MatchSubject)
	if err != nil {
		return nil, err
	}

	canonical := matchquery.Format(numbers, matchquery.HundredsKey)
	s.saveLastQuery(ctx, settings, canonical)

	return &MatchPreview{
		Query:       canonical,
		Results:     batch.Results,
		Diagnostics: batch.Diagnostics,
		Directives:  batch.Directives(),
	}, nil
}

func (s *notificationService) SendMatchNotifications(ctx context.Context, query, subject string) (*SendReport, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.MailchimpAPIKey == "" {
		return nil, ErrNoMailchimpAPIKey
	}
	if settings.MailchimpAudienceID == "" {
		return nil, ErrNoMailchimpAudience
	}
	if settings.MailchimpMatchTemplateID == "" {
		return nil, ErrInvalidTemplateID
	}

	canonicalSubject, err := notify.ValidateSubject(subject, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubjectInvalid, err)
	}

	numbers, batch, err := s.compileMatches(ctx, settings, query, canonicalSubject)
	if err != nil {
		return nil, err
	}
	valid := 0
	for _, result := range batch.Results {
		if result.State == notify.StateValid {
			valid++
		}
	}
	if valid == 0 {
		return nil, ErrNoValidMatchesGiven
	}

	client, err := s.provider.Get(ctx, settings.MailchimpAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Mailchimp: %w", err)
	}
	templateName, err := client.GetTemplateName(ctx, settings.MailchimpMatchTemplateID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplateID, err)
	}
	segmentID, err := client.EnsureStaticSegment(ctx, settings.MailchimpAudienceID, workingSegmentName)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare working segment: %w", err)
	}

	report := &SendReport{
		Query:        matchquery.Format(numbers, matchquery.HundredsKey),
		TemplateName: templateName,
		Results:      batch.Results,
		Diagnostics:  batch.Diagnostics,
	}
	for _, result := range batch.Results {
		if result.State != notify.StateValid {
			continue
		}
		for _, directive := range result.Directives {
			_, sendErr := client.SendCampaignToEmails(ctx,
				settings.MailchimpAudienceID, settings.MailchimpMatchTemplateID,
				directive.Subject, segmentID, directive.Recipients,
			)
			result.RecordSendResult(sendErr)
			if sendErr != nil {
				report.Failed++
				batch.Diagnostics.Add(models.DiagnosticError, result.Match.Number,
					fmt.Sprintf("Email send failed (%s)", directive.Description))
				s.logger.Error("campaign send failed",
					"match", result.Match.Number, "error", sendErr)
				continue
			}
			report.Sent++
			s.recordMatchEmail(ctx, result.Match.Number, templateName, directive)
		}
	}
	if report.Sent == 0 {
		return nil, ErrAllSendsFailed
	}

	settings.LastMatchesQuery = report.Query
	settings.MatchSubject = canonicalSubject
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		s.logger.Error("failed to save settings after send", "error", err)
	}
	return report, nil
}

func (s *notificationService) SendBlast(ctx context.Context, subject string, target notify.BlastTarget) (*BlastReport, error) {
	if target == nil {
		return nil, ErrBlastTargetRequired
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.MailchimpAPIKey == "" {
		return nil, ErrNoMailchimpAPIKey
	}
	if settings.MailchimpAudienceID == "" {
		return nil, ErrNoMailchimpAudience
	}
	if settings.MailchimpBlastTemplateID == "" {
		return nil, ErrInvalidTemplateID
	}

	canonicalSubject, err := notify.ValidateSubject(subject, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubjectInvalid, err)
	}

	directive, err := notify.CompileBlast(canonicalSubject, target, s.divisionEmails(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	client, err := s.provider.Get(ctx, settings.MailchimpAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Mailchimp: %w", err)
	}
	templateName, err := client.GetTemplateName(ctx, settings.MailchimpBlastTemplateID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplateID, err)
	}

	audienceID := settings.MailchimpAudienceID
	templateID := settings.MailchimpBlastTemplateID
	switch t := target.(type) {
	case notify.BlastToTag:
		segmentID, findErr := client.FindSegmentByName(ctx, audienceID, t.Tag)
		if findErr != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", t.Tag, findErr)
		}
		_, err = client.SendCampaignToSegment(ctx, audienceID, templateID, canonicalSubject, segmentID)
	case notify.BlastToAudience:
		_, err = client.SendCampaignToAudience(ctx, audienceID, templateID, canonicalSubject)
	case notify.BlastToDivision:
		segmentID, ensureErr := client.EnsureStaticSegment(ctx, audienceID, workingSegmentName)
		if ensureErr != nil {
			return nil, fmt.Errorf("failed to prepare working segment: %w", ensureErr)
		}
		_, err = client.SendCampaignToEmails(ctx, audienceID, templateID, canonicalSubject, segmentID, directive.Recipients)
	default:
		return nil, ErrBlastTargetRequired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to send blast: %w", err)
	}

	record := &models.BlastSentEmail{
		TemplateName: templateName,
		Subject:      canonicalSubject,
		TimeSent:     time.Now().UTC(),
		Recipient:    target.Describe(),
	}
	if err := s.sentEmailRepo.RecordBlastEmails(ctx, []*models.BlastSentEmail{record}); err != nil {
		s.logger.Error("failed to record blast email", "error", err)
	}

	settings.BlastSubject = canonicalSubject
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		s.logger.Error("failed to save settings after blast", "error", err)
	}

	return &BlastReport{
		TemplateName: templateName,
		Subject:      canonicalSubject,
		Recipient:    target.Describe(),
		Recipients:   len(directive.Recipients),
	}, nil
}

// compileMatches parses the query, pulls the matches worksheet, and
// compiles the requested matches. Requested numbers absent from the
// worksheet become per-match errors, not a batch failure.
func (s *notificationService) compileMatches(ctx context.Context, settings *models.Settings, query, subject string) ([]int, *notify.Batch, error) {
	if settings.TMSSpreadsheetID == "" {
		return nil, nil, ErrSpreadsheetNotSet
	}
	numbers, err := s.parser.Parse(query)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMatchesQueryInvalid, err)
	}
	if len(numbers) == 0 {
		return nil, nil, ErrNoMatchesGiven
	}

	all, err := s.matches.FetchMatches(ctx, settings.TMSSpreadsheetID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch matches worksheet: %w", err)
	}
	byNumber := make(map[int]models.MatchInfo, len(all))
	for _, match := range all {
		if _, ok := byNumber[match.Number]; !ok {
			byNumber[match.Number] = match
		}
	}

	var selected []models.MatchInfo
	var missing []int
	for _, n := range numbers {
		if match, ok := byNumber[n]; ok {
			selected = append(selected, match)
		} else {
			missing = append(missing, n)
		}
	}

	compiler, err := s.buildCompiler(ctx, settings, selected)
	if err != nil {
		return nil, nil, err
	}
	batch := compiler.Compile(subject, selected)
	for _, n := range missing {
		batch.Diagnostics.Add(models.DiagnosticError, n, "Match not found")
		batch.Results = append(batch.Results, &notify.MatchResult{
			Match:  models.MatchInfo{Number: n},
			State:  notify.StateInvalid,
			Reason: "Match not found",
		})
	}
	return numbers, batch, nil
}

// buildCompiler prefetches roster teams and subscriptions for every
// valid side of the selected matches, so compilation itself does no I/O.
func (s *notificationService) buildCompiler(ctx context.Context, settings *models.Settings, matches []models.MatchInfo) (*notify.Compiler, error) {
	keySet := make(map[models.TeamKey]bool)
	var keys []models.TeamKey
	for _, match := range matches {
		for _, team := range []models.MatchTeam{match.Blue, match.Red} {
			if !team.Valid {
				continue
			}
			key := team.Key(match.Division)
			if !keySet[key] {
				keySet[key] = true
				keys = append(keys, key)
			}
		}
	}

	teams, err := s.rosterRepo.GetTeams(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster teams: %w", err)
	}
	var subscribers map[models.TeamKey][]string
	if settings.SendToSubscribers {
		subscribers, err = s.subscriptionRepo.GetForTeams(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("failed to load subscriptions: %w", err)
		}
	}

	return &notify.Compiler{
		Teams: func(key models.TeamKey) (*models.ResolvedTeam, error) {
			result, ok := teams[key]
			if !ok {
				return nil, repositories.ErrRosterTeamNotFound
			}
			return result.Team, result.Err
		},
		Subscribers: func(key models.TeamKey) []string {
			return subscribers[key]
		},
		SchoolEmails: func(school string, roles []models.UserRole) []string {
			emails, err := s.rosterRepo.GetUserEmailsForSchool(ctx, school, roles)
			if err != nil {
				s.logger.Error("failed to load school emails", "school", school, "error", err)
				return nil
			}
			return emails
		},
		Settings: notify.Settings{
			SendToCoaches:     settings.SendToCoaches,
			SendToSpectators:  settings.SendToSpectators,
			SendToSubscribers: settings.SendToSubscribers,
		},
	}, nil
}

// divisionEmails unions roster member and subscriber emails of one
// division for blast sends.
func (s *notificationService) divisionEmails(ctx context.Context) notify.DivisionEmailLookup {
	return func(division string) ([]string, error) {
		members, err := s.rosterRepo.GetDivisionMemberEmails(ctx, division)
		if err != nil {
			return nil, fmt.Errorf("failed to load division emails: %w", err)
		}
		subscribers, err := s.subscriptionRepo.GetDivisionSubscriberEmails(ctx, division)
		if err != nil {
			return nil, fmt.Errorf("failed to load division subscribers: %w", err)
		}
		return append(members, subscribers...), nil
	}
}

func (s *notificationService) recordMatchEmail(ctx context.Context, matchNumber int, templateName string, directive models.SendDirective) {
	record := &models.SentEmail{
		MatchNumber:  matchNumber,
		TemplateName: templateName,
		Subject:      directive.Subject,
		TimeSent:     time.Now().UTC(),
		Recipients:   directive.Recipients,
	}
	if err := s.sentEmailRepo.RecordMatchEmail(ctx, record); err != nil {
		s.logger.Error("failed to record sent email", "match", matchNumber, "error", err)
	}
}

func (s *notificationService) saveLastQuery(ctx context.Context, settings *models.Settings, canonical string) {
	if settings.LastMatchesQuery == canonical {
		return
	}
	settings.LastMatchesQuery = canonical
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		s.logger.Error("failed to save last matches query", "error", err)
	}
}

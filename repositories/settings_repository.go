package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tns-project/tns-server/models"
)

// SettingsRepository persists the single operational settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

type postgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

const settingsColumns = `
	tms_spreadsheet_id, mailchimp_api_key, mailchimp_audience_id, mailchimp_audience_tag,
	mailchimp_match_template_id, mailchimp_blast_template_id,
	match_subject, blast_subject, last_matches_query,
	send_to_coaches, send_to_spectators, send_to_subscribers,
	roster_last_fetched`

func (r *postgresSettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM settings WHERE id = 1`

	var s models.Settings
	var lastFetched sql.NullTime
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.TMSSpreadsheetID, &s.MailchimpAPIKey, &s.MailchimpAudienceID, &s.MailchimpAudienceTag,
		&s.MailchimpMatchTemplateID, &s.MailchimpBlastTemplateID,
		&s.MatchSubject, &s.BlastSubject, &s.LastMatchesQuery,
		&s.SendToCoaches, &s.SendToSpectators, &s.SendToSubscribers,
		&lastFetched,
	)
	if err == sql.ErrNoRows {
		// defaults before the first save
		return &models.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if lastFetched.Valid {
		t := lastFetched.Time
		s.RosterLastFetched = &t
	}
	return &s, nil
}

func (r *postgresSettingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	query := `
		INSERT INTO settings (id, ` + settingsColumns + `)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			tms_spreadsheet_id = EXCLUDED.tms_spreadsheet_id,
			mailchimp_api_key = EXCLUDED.mailchimp_api_key,
			mailchimp_audience_id = EXCLUDED.mailchimp_audience_id,
			mailchimp_audience_tag = EXCLUDED.mailchimp_audience_tag,
			mailchimp_match_template_id = EXCLUDED.mailchimp_match_template_id,
			mailchimp_blast_template_id = EXCLUDED.mailchimp_blast_template_id,
			match_subject = EXCLUDED.match_subject,
			blast_subject = EXCLUDED.blast_subject,
			last_matches_query = EXCLUDED.last_matches_query,
			send_to_coaches = EXCLUDED.send_to_coaches,
			send_to_spectators = EXCLUDED.send_to_spectators,
			send_to_subscribers = EXCLUDED.send_to_subscribers,
			roster_last_fetched = EXCLUDED.roster_last_fetched`

	var lastFetched sql.NullTime
	if settings.RosterLastFetched != nil {
		lastFetched = sql.NullTime{Time: *settings.RosterLastFetched, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		settings.TMSSpreadsheetID, settings.MailchimpAPIKey,
		settings.MailchimpAudienceID, settings.MailchimpAudienceTag,
		settings.MailchimpMatchTemplateID, settings.MailchimpBlastTemplateID,
		settings.MatchSubject, settings.BlastSubject, settings.LastMatchesQuery,
		settings.SendToCoaches, settings.SendToSpectators, settings.SendToSubscribers,
		lastFetched,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

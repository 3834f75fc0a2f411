package services

import (
	"context"
	"fmt"

	"github.com/tns-project/tns-server/mailchimp"
	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/repositories"
)

// SettingsView is the settings payload served to admins. The API key
// itself is never echoed back; only its presence is.
type SettingsView struct {
	models.Settings
	MailchimpConfigured bool `json:"mailchimp_configured"`
}

type SettingsService interface {
	Get(ctx context.Context) (*SettingsView, error)
	// Update applies the patch and drops any cached spreadsheet or
	// Mailchimp handles whose credentials the patch changed.
	Update(ctx context.Context, patch models.SettingsPatch) (*SettingsView, error)
	// ListAudiences lists the Mailchimp audiences of the configured
	// account.
	ListAudiences(ctx context.Context) ([]mailchimp.Audience, error)
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
	source       RosterSource
	provider     *mailchimp.Provider
}

func NewSettingsService(
	settingsRepo repositories.SettingsRepository,
	source RosterSource,
	provider *mailchimp.Provider,
) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		source:       source,
		provider:     provider,
	}
}

func (s *settingsService) Get(ctx context.Context) (*SettingsView, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return newSettingsView(settings), nil
}

func (s *settingsService) Update(ctx context.Context, patch models.SettingsPatch) (*SettingsView, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	oldSpreadsheet := settings.TMSSpreadsheetID
	oldAPIKey := settings.MailchimpAPIKey

	if !patch.Apply(settings) {
		return newSettingsView(settings), nil
	}
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	if settings.TMSSpreadsheetID != oldSpreadsheet {
		s.source.Invalidate()
	}
	if settings.MailchimpAPIKey != oldAPIKey {
		s.provider.Invalidate()
	}
	return newSettingsView(settings), nil
}

func (s *settingsService) ListAudiences(ctx context.Context) ([]mailchimp.Audience, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.MailchimpAPIKey == "" {
		return nil, ErrNoMailchimpAPIKey
	}
	client, err := s.provider.Get(ctx, settings.MailchimpAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Mailchimp: %w", err)
	}
	audiences, err := client.GetAudiences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audiences: %w", err)
	}
	return audiences, nil
}

func newSettingsView(settings *models.Settings) *SettingsView {
	return &SettingsView{
		Settings:            *settings,
		MailchimpConfigured: settings.HasMailchimp(),
	}
}

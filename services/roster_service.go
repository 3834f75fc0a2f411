package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/repositories"
	"github.com/tns-project/tns-server/roster"
	"github.com/tns-project/tns-server/sheets"
	"github.com/tns-project/tns-server/storage"
	"github.com/tns-project/tns-server/ws"
)

// RosterSource reads roster rows from the configured spreadsheet.
// Satisfied by *sheets.Client.
type RosterSource interface {
	FetchRosterRows(ctx context.Context, spreadsheetID string) ([]models.RosterRow, error)
	Invalidate()
}

// FetchResult is the outcome of one roster fetch.
type FetchResult struct {
	Diagnostics []models.RosterDiagnostic `json:"diagnostics"`
	Roster      *models.Roster            `json:"roster"`
	LogsURL     string                    `json:"logs_url,omitempty"`
	FetchedAt   time.Time                 `json:"fetched_at"`
}

type RosterService interface {
	// Fetch pulls the roster worksheet, builds the roster, and replaces
	// the stored one. A roster that fails to build leaves storage
	// untouched.
	Fetch(ctx context.Context) (*FetchResult, error)
	Get(ctx context.Context) (*models.Roster, error)
	ListDivisions(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

type rosterService struct {
	rosterRepo   repositories.RosterRepository
	settingsRepo repositories.SettingsRepository
	source       RosterSource
	uploader     storage.FileUploader
	hub          *ws.Hub
	logger       *slog.Logger
}

func NewRosterService(
	rosterRepo repositories.RosterRepository,
	settingsRepo repositories.SettingsRepository,
	source RosterSource,
	uploader storage.FileUploader,
	hub *ws.Hub,
	logger *slog.Logger,
) RosterService {
	return &rosterService{
		rosterRepo:   rosterRepo,
		settingsRepo: settingsRepo,
		source:       source,
		uploader:     uploader,
		hub:          hub,
		logger:       logger,
	}
}

func (s *rosterService) Fetch(ctx context.Context) (*FetchResult, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.TMSSpreadsheetID == "" {
		return nil, ErrSpreadsheetNotSet
	}

	s.broadcast("fetch_started", nil)

	rows, err := s.source.FetchRosterRows(ctx, settings.TMSSpreadsheetID)
	if err != nil {
		s.broadcast("fetch_failed", map[string]string{"error": err.Error()})
		if errors.Is(err, sheets.ErrSpreadsheetNotFound) {
			// the configured id points nowhere; drop any cached handle
			s.source.Invalidate()
			return nil, ErrSpreadsheetNotFound
		}
		return nil, fmt.Errorf("failed to fetch roster worksheet: %w", err)
	}

	diagnostics, built := roster.Build(rows)
	sortDiagnostics(diagnostics)

	for _, check := range []struct {
		what  string
		count int
	}{
		{"users", len(built.Users)},
		{"teams", len(built.Teams)},
		{"schools", len(built.Schools)},
	} {
		if check.count == 0 {
			s.broadcast("fetch_failed", map[string]string{"error": "empty roster"})
			return nil, fmt.Errorf("%w (no %s found)", ErrRosterEmpty, check.what)
		}
	}

	if err := s.rosterRepo.Replace(ctx, built); err != nil {
		s.broadcast("fetch_failed", map[string]string{"error": "database error"})
		return nil, fmt.Errorf("failed to replace roster: %w", err)
	}

	fetchedAt := time.Now().UTC()
	result := &FetchResult{
		Diagnostics: diagnostics,
		Roster:      built,
		FetchedAt:   fetchedAt,
	}
	result.LogsURL = s.uploadDiagnostics(ctx, diagnostics, fetchedAt)

	settings.RosterLastFetched = &fetchedAt
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		// the roster is already in place; losing the timestamp is not fatal
		s.logger.Error("failed to save roster fetch time", "error", err)
	}

	s.broadcast("fetch_finished", map[string]int{
		"schools": len(built.Schools),
		"users":   len(built.Users),
		"teams":   len(built.Teams),
	})
	return result, nil
}

// uploadDiagnostics archives the fetch diagnostics as JSON in object
// storage. Failures are logged only; the fetch itself already succeeded.
func (s *rosterService) uploadDiagnostics(ctx context.Context, diagnostics []models.RosterDiagnostic, fetchedAt time.Time) string {
	if s.uploader == nil {
		return ""
	}
	encoded, err := json.Marshal(diagnostics)
	if err != nil {
		s.logger.Error("failed to encode roster diagnostics", "error", err)
		return ""
	}
	key := fmt.Sprintf("roster-logs/%s.json", fetchedAt.Format("2006-01-02T15-04-05"))
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(encoded))
	if err != nil {
		s.logger.Error("failed to upload roster diagnostics", "key", key, "error", err)
		return ""
	}
	return uploaded.Location
}

func (s *rosterService) Get(ctx context.Context) (*models.Roster, error) {
	fetched, err := s.rosterRepo.GetFull(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if len(fetched.Users) == 0 {
		return nil, ErrNoRosterFetched
	}
	return fetched, nil
}

func (s *rosterService) ListDivisions(ctx context.Context) ([]string, error) {
	divisions, err := s.rosterRepo.ListDivisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list divisions: %w", err)
	}
	return divisions, nil
}

func (s *rosterService) Clear(ctx context.Context) error {
	if err := s.rosterRepo.Clear(ctx, nil); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}
	s.broadcast("roster_cleared", nil)
	return nil
}

func (s *rosterService) broadcast(eventType string, payload interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(ws.StreamRoster, eventType, payload)
	}
}

// sortDiagnostics orders diagnostics by row number, keeping generation
// order within a row. Diagnostics without a row (post-pass) sort last.
func sortDiagnostics(diagnostics []models.RosterDiagnostic) {
	sort.SliceStable(diagnostics, func(i, j int) bool {
		a, b := diagnostics[i].RowNum, diagnostics[j].RowNum
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

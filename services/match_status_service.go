package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/repositories"
	"github.com/tns-project/tns-server/ws"
)

// MatchStatusChange is one detected status transition since the last
// poll. OldStatus is empty for matches seen for the first time.
type MatchStatusChange struct {
	Match     models.MatchInfo `json:"match"`
	OldStatus string           `json:"old_status,omitempty"`
	NewStatus string           `json:"new_status"`
}

type MatchStatusService interface {
	// Poll fetches the matches worksheet once, records the statuses,
	// and broadcasts any changes on the matches stream.
	Poll(ctx context.Context) ([]MatchStatusChange, error)
	// Run polls on the given interval until ctx is canceled.
	Run(ctx context.Context, interval time.Duration)
}

type matchStatusService struct {
	settingsRepo    repositories.SettingsRepository
	matchStatusRepo repositories.MatchStatusRepository
	matches         MatchSource
	hub             *ws.Hub
	logger          *slog.Logger
}

func NewMatchStatusService(
	settingsRepo repositories.SettingsRepository,
	matchStatusRepo repositories.MatchStatusRepository,
	matches MatchSource,
	hub *ws.Hub,
	logger *slog.Logger,
) MatchStatusService {
	return &matchStatusService{
		settingsRepo:    settingsRepo,
		matchStatusRepo: matchStatusRepo,
		matches:         matches,
		hub:             hub,
		logger:          logger,
	}
}

func (s *matchStatusService) Poll(ctx context.Context) ([]MatchStatusChange, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.TMSSpreadsheetID == "" {
		return nil, ErrSpreadsheetNotSet
	}

	matches, err := s.matches.FetchMatches(ctx, settings.TMSSpreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches worksheet: %w", err)
	}

	previous, err := s.matchStatusRepo.GetStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load match statuses: %w", err)
	}

	var changes []MatchStatusChange
	for _, match := range matches {
		old, known := previous[match.Number]
		if known && old == match.Status {
			continue
		}
		changes = append(changes, MatchStatusChange{
			Match:     match,
			OldStatus: old,
			NewStatus: match.Status,
		})
	}

	if err := s.matchStatusRepo.UpsertMatches(ctx, matches, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record match statuses: %w", err)
	}

	if len(changes) > 0 && s.hub != nil {
		s.hub.Broadcast(ws.StreamMatches, "status_changed", changes)
	}
	return changes, nil
}

func (s *matchStatusService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changes, err := s.Poll(ctx)
			if err != nil {
				// a missing spreadsheet id just means nothing to poll yet
				if !errors.Is(err, ErrSpreadsheetNotSet) {
					s.logger.Error("match status poll failed", "error", err)
				}
				continue
			}
			if len(changes) > 0 {
				s.logger.Info("match statuses changed", "count", len(changes))
			}
		}
	}
}

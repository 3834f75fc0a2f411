package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/repositories"
)

type SubscriptionService interface {
	// Subscribe registers an email for one team's notifications. The
	// team must exist in the current roster.
	Subscribe(ctx context.Context, sub *models.Subscription) error
	Unsubscribe(ctx context.Context, id int) error
	// UnsubscribeEmail removes every subscription of the address and
	// returns how many were removed.
	UnsubscribeEmail(ctx context.Context, email string) (int, error)
	List(ctx context.Context) ([]*models.Subscription, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	rosterRepo       repositories.RosterRepository
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	rosterRepo repositories.RosterRepository,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		rosterRepo:       rosterRepo,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, sub *models.Subscription) error {
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	if sub.Email == "" || !strings.Contains(sub.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrValidationFailed)
	}
	if sub.School == "" || sub.Division == "" || sub.Number <= 0 {
		return fmt.Errorf("%w: incomplete team", ErrValidationFailed)
	}

	key := sub.TeamKey()
	teams, err := s.rosterRepo.GetTeams(ctx, []models.TeamKey{key})
	if err != nil {
		return fmt.Errorf("failed to verify team: %w", err)
	}
	result, ok := teams[key]
	if !ok || result.Err != nil {
		return fmt.Errorf("%w: %s", ErrSubscriptionTeamAbsent, key.Name())
	}

	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, repositories.ErrSubscriptionConflict) {
			return ErrSubscriptionConflict
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, id int) error {
	if err := s.subscriptionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return ErrSubscriptionNotFound
		}
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *subscriptionService) UnsubscribeEmail(ctx context.Context, email string) (int, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	removed, err := s.subscriptionRepo.DeleteByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	if removed == 0 {
		return 0, ErrSubscriptionNotFound
	}
	return removed, nil
}

func (s *subscriptionService) List(ctx context.Context) ([]*models.Subscription, error) {
	subs, err := s.subscriptionRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

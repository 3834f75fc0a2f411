package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/tns-project/tns-server/models"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionConflict = errors.New("subscription already exists")
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, id int) error
	DeleteByEmail(ctx context.Context, email string) (int, error)
	ListAll(ctx context.Context) ([]*models.Subscription, error)
	// GetForTeams returns the subscriber emails of each requested team.
	GetForTeams(ctx context.Context, keys []models.TeamKey) (map[models.TeamKey][]string, error)
	GetDivisionSubscriberEmails(ctx context.Context, division string) ([]string, error)
}

type postgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &postgresSubscriptionRepository{db: db}
}

func (r *postgresSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (email, school, division, number)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		sub.Email, sub.School, sub.Division, sub.Number,
	).Scan(&sub.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return ErrSubscriptionConflict
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *postgresSubscriptionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSubscriptionNotFound)
}

func (r *postgresSubscriptionRepository) DeleteByEmail(ctx context.Context, email string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscriptions for %q: %w", email, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(deleted), nil
}

func (r *postgresSubscriptionRepository) ListAll(ctx context.Context) ([]*models.Subscription, error) {
	query := `
		SELECT id, email, school, division, number
		FROM subscriptions
		ORDER BY school, division, number, email`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.Subscription, 0)
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.School, &sub.Division, &sub.Number); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

func (r *postgresSubscriptionRepository) GetForTeams(ctx context.Context, keys []models.TeamKey) (map[models.TeamKey][]string, error) {
	subscribers := make(map[models.TeamKey][]string, len(keys))
	if len(keys) == 0 {
		return subscribers, nil
	}

	schools := make([]string, len(keys))
	for i, key := range keys {
		schools[i] = key.School
	}
	query := `
		SELECT email, school, division, number
		FROM subscriptions
		WHERE school = ANY($1)
		ORDER BY email`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(schools))
	if err != nil {
		return nil, fmt.Errorf("failed to get team subscribers: %w", err)
	}
	defer rows.Close()

	wanted := make(map[models.TeamKey]bool, len(keys))
	for _, key := range keys {
		wanted[key] = true
	}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.Email, &sub.School, &sub.Division, &sub.Number); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		key := sub.TeamKey()
		if wanted[key] {
			subscribers[key] = append(subscribers[key], sub.Email)
		}
	}
	return subscribers, rows.Err()
}

func (r *postgresSubscriptionRepository) GetDivisionSubscriberEmails(ctx context.Context, division string) ([]string, error) {
	query := `SELECT DISTINCT email FROM subscriptions WHERE division = $1 ORDER BY email`
	rows, err := r.db.QueryContext(ctx, query, division)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribers for division %q: %w", division, err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

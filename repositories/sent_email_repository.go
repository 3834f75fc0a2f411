package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/tns-project/tns-server/models"
)

type SentEmailRepository interface {
	RecordMatchEmail(ctx context.Context, email *models.SentEmail) error
	RecordBlastEmails(ctx context.Context, emails []*models.BlastSentEmail) error
	ListMatchEmails(ctx context.Context) ([]*models.SentEmail, error)
	ListBlastEmails(ctx context.Context) ([]*models.BlastSentEmail, error)
	ClearAll(ctx context.Context) error
}

type postgresSentEmailRepository struct {
	db *sql.DB
}

func NewPostgresSentEmailRepository(db *sql.DB) SentEmailRepository {
	return &postgresSentEmailRepository{db: db}
}

func (r *postgresSentEmailRepository) RecordMatchEmail(ctx context.Context, email *models.SentEmail) error {
	query := `
		INSERT INTO sent_emails (match_number, template_name, subject, time_sent, recipients)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		email.MatchNumber, email.TemplateName, email.Subject,
		email.TimeSent, pq.Array(email.Recipients),
	).Scan(&email.ID)
	if err != nil {
		return fmt.Errorf("failed to record sent email: %w", err)
	}
	return nil
}

func (r *postgresSentEmailRepository) RecordBlastEmails(ctx context.Context, emails []*models.BlastSentEmail) error {
	if len(emails) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record blast emails: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blast_sent_emails (template_name, subject, time_sent, recipient)
		VALUES ($1, $2, $3, $4)
		RETURNING id`)
	if err != nil {
		return fmt.Errorf("record blast emails: failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, email := range emails {
		err := stmt.QueryRowContext(ctx,
			email.TemplateName, email.Subject, email.TimeSent, email.Recipient,
		).Scan(&email.ID)
		if err != nil {
			return fmt.Errorf("record blast emails: failed for %q: %w", email.Recipient, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record blast emails: failed to commit: %w", err)
	}
	return nil
}

func (r *postgresSentEmailRepository) ListMatchEmails(ctx context.Context) ([]*models.SentEmail, error) {
	query := `
		SELECT id, match_number, template_name, subject, time_sent, recipients
		FROM sent_emails
		ORDER BY time_sent DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent emails: %w", err)
	}
	defer rows.Close()

	emails := make([]*models.SentEmail, 0)
	for rows.Next() {
		var email models.SentEmail
		if err := rows.Scan(
			&email.ID, &email.MatchNumber, &email.TemplateName,
			&email.Subject, &email.TimeSent, pq.Array(&email.Recipients),
		); err != nil {
			return nil, fmt.Errorf("failed to scan sent email: %w", err)
		}
		emails = append(emails, &email)
	}
	return emails, rows.Err()
}

func (r *postgresSentEmailRepository) ListBlastEmails(ctx context.Context) ([]*models.BlastSentEmail, error) {
	query := `
		SELECT id, template_name, subject, time_sent, recipient
		FROM blast_sent_emails
		ORDER BY time_sent DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blast sent emails: %w", err)
	}
	defer rows.Close()

	emails := make([]*models.BlastSentEmail, 0)
	for rows.Next() {
		var email models.BlastSentEmail
		if err := rows.Scan(
			&email.ID, &email.TemplateName, &email.Subject,
			&email.TimeSent, &email.Recipient,
		); err != nil {
			return nil, fmt.Errorf("failed to scan blast sent email: %w", err)
		}
		emails = append(emails, &email)
	}
	return emails, rows.Err()
}

func (r *postgresSentEmailRepository) ClearAll(ctx context.Context) error {
	for _, table := range []string{"sent_emails", "blast_sent_emails"} {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

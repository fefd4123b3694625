package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/internal/model"
)

// SentEmailRepository persists and reads the sent-email history, the only
// durable state in the system. A dropped write here causes duplicate emails
// on the next run, so Append propagates every error.
type SentEmailRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSentEmailRepository(db *pgxpool.Pool, logger *zap.Logger) *SentEmailRepository {
	return &SentEmailRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one history row after a successful send. The original due
// date sticks to the first row ever written for the tuple, so later rows
// show how far the due date drifted across reminders.
func (r *SentEmailRepository) Append(ctx context.Context, rec model.SentEmailRecord) error {
	query := `
        INSERT INTO sent_emails (
            page_id, initiative_id, recipient_id, recipient_email,
            original_due_date, current_due_date, category, run_date,
            provider_name, provider_message_id, status
        )
        VALUES ($1, $2, $3, $4,
            COALESCE((
                SELECT se.original_due_date FROM sent_emails se
                WHERE se.page_id = $1 AND se.initiative_id = $2 AND se.recipient_id = $3
                ORDER BY se.run_date ASC LIMIT 1
            ), $5),
            $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query,
		rec.PageID,
		rec.InitiativeID,
		rec.RecipientID,
		rec.RecipientEmail,
		rec.OriginalDueDate,
		rec.CurrentDueDate,
		rec.Category,
		rec.RunDate,
		rec.ProviderName,
		rec.ProviderMessageID,
		rec.Status,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to append sent email record",
			zap.String("page_id", rec.PageID),
			zap.String("initiative_id", rec.InitiativeID),
			zap.String("recipient_id", rec.RecipientID),
			zap.String("category", rec.Category),
			zap.Error(err),
		)
		return fmt.Errorf("failed to append sent email record: %w", err)
	}

	return nil
}

// QueryHistory returns every history row for one (item, initiative,
// recipient) tuple across all run dates. Day filtering happens in the digest
// builder, which owns the reference-timezone comparison.
func (r *SentEmailRepository) QueryHistory(ctx context.Context, pageID, initiativeID, recipientID string) ([]model.SentEmailRecord, error) {
	query := `
        SELECT id, page_id, initiative_id, recipient_id, recipient_email,
               original_due_date, current_due_date, category, run_date,
               provider_name, provider_message_id, status
        FROM sent_emails
        WHERE page_id = $1 AND initiative_id = $2 AND recipient_id = $3
        ORDER BY run_date DESC
    `
	rows, err := r.db.Query(ctx, query, pageID, initiativeID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sent email history: %w", err)
	}
	defer rows.Close()

	var records []model.SentEmailRecord
	for rows.Next() {
		var rec model.SentEmailRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.PageID,
			&rec.InitiativeID,
			&rec.RecipientID,
			&rec.RecipientEmail,
			&rec.OriginalDueDate,
			&rec.CurrentDueDate,
			&rec.Category,
			&rec.RunDate,
			&rec.ProviderName,
			&rec.ProviderMessageID,
			&rec.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sent email record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sent email history: %w", err)
	}

	return records, nil
}

// ListByRunWindow returns rows whose run date falls in [from, to), newest
// first. The operator read API uses it to inspect one calendar day.
func (r *SentEmailRepository) ListByRunWindow(ctx context.Context, from, to time.Time) ([]model.SentEmailRecord, error) {
	query := `
        SELECT id, page_id, initiative_id, recipient_id, recipient_email,
               original_due_date, current_due_date, category, run_date,
               provider_name, provider_message_id, status
        FROM sent_emails
        WHERE run_date >= $1 AND run_date < $2
        ORDER BY run_date DESC
    `
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent email history: %w", err)
	}
	defer rows.Close()

	var records []model.SentEmailRecord
	for rows.Next() {
		var rec model.SentEmailRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.PageID,
			&rec.InitiativeID,
			&rec.RecipientID,
			&rec.RecipientEmail,
			&rec.OriginalDueDate,
			&rec.CurrentDueDate,
			&rec.Category,
			&rec.RunDate,
			&rec.ProviderName,
			&rec.ProviderMessageID,
			&rec.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sent email record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sent email history: %w", err)
	}

	return records, nil
}

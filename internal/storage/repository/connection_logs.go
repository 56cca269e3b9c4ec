package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// DefaultLogLimit — количество записей журнала, отдаваемых по умолчанию.
const DefaultLogLimit = 50

// ListLogEntries возвращает последние записи журнала кампании, новые первыми.
func (s *Storage) ListLogEntries(ctx context.Context, campaignID int64, limit int) ([]models.ConnectionLogEntry, error) {
	const op = "storage.ListLogEntries"
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	query := `SELECT id, campaign_id, profile_url, message_sent, status, sent_at
			  FROM connection_logs
			  WHERE campaign_id = $1
			  ORDER BY sent_at DESC NULLS LAST, id DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.ConnectionLogEntry
	for rows.Next() {
		var e models.ConnectionLogEntry
		var sentAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.ProfileURL, &e.MessageSent, &e.Status, &sentAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if sentAt.Valid {
			e.SentAt = &sentAt.Time
		}
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountLogEntriesByUser возвращает число попыток по всем кампаниям пользователя.
func (s *Storage) CountLogEntriesByUser(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountLogEntriesByUser"
	query := `SELECT COUNT(*)
			  FROM connection_logs l
			  JOIN campaigns c ON c.id = l.campaign_id
			  WHERE c.user_uid = $1`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func appendLogEntries(ctx context.Context, tx *sql.Tx, campaignID int64, entries []models.ConnectionLogEntry) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO connection_logs
			  (campaign_id, profile_url, message_sent, status, sent_at)
			  VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, campaignID, e.ProfileURL, e.MessageSent, e.Status, e.SentAt); err != nil {
			return err
		}
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// Session — выделенное соединение для одного запуска кампании.
// Соединение не разделяется между запусками и освобождается в Close.
type Session struct {
	conn *sql.Conn
}

// Session берёт из пула отдельное соединение.
func (s *Storage) Session(ctx context.Context) (*Session, error) {
	const op = "storage.Session"
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{conn: conn}, nil
}

// Close возвращает соединение в пул. Повторный вызов безопасен.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// GetCampaign возвращает кампанию или models.ErrNotFound.
func (s *Session) GetCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	const op = "storage.Session.GetCampaign"
	c, err := getCampaign(ctx, s.conn, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return c, nil
}

// GetUser возвращает пользователя или models.ErrNotFound.
func (s *Session) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.Session.GetUser"
	u, err := getUser(ctx, s.conn, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// AppendLogEntries записывает журнал запуска одной транзакцией: либо все записи, либо ни одной.
func (s *Session) AppendLogEntries(ctx context.Context, campaignID int64, entries []models.ConnectionLogEntry) error {
	const op = "storage.Session.AppendLogEntries"
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := appendLogEntries(ctx, tx, campaignID, entries); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

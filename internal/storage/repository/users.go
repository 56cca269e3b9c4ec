package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

const userColumns = `uid, email, access_token, subscription_status, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var token sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &token, &u.SubscriptionStatus, &u.CreatedAt); err != nil {
		return nil, err
	}
	if token.Valid {
		u.AccessToken = &token.String
	}
	return &u, nil
}

func getUser(ctx context.Context, q querier, userUID string) (*models.User, error) {
	// невалидный UID не может существовать в таблице
	if _, err := uuid.Parse(userUID); err != nil {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	return scanUser(q.QueryRowContext(ctx, query, userUID))
}

// GetOrCreateUserByEmail возвращает пользователя по почте, создавая его при первом входе.
func (s *Storage) GetOrCreateUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetOrCreateUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, subscription_status)
			  VALUES ($1, $2)
			  ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email, models.SubscriptionFree))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	u, err := getUser(ctx, s.DB, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// SetAccessToken сохраняет токен внешнего провайдера пользователя.
func (s *Storage) SetAccessToken(ctx context.Context, userUID, token string) error {
	const op = "storage.SetAccessToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if _, err := uuid.Parse(userUID); err != nil {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	result, err := s.DB.ExecContext(ctx, `UPDATE users SET access_token = $1 WHERE uid = $2`, token, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

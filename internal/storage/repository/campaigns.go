package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

const campaignColumns = `id, user_uid, name, search_query, message_template, daily_limit,
				status, schedule, created_at`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var c models.Campaign
	if err := row.Scan(&c.ID, &c.UserUID, &c.Name, &c.SearchQuery, &c.MessageTemplate,
		&c.DailyLimit, &c.Status, &c.Schedule, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func getCampaign(ctx context.Context, q querier, id int64) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return scanCampaign(q.QueryRowContext(ctx, query, id))
}

// CreateCampaign сохраняет новую кампанию и возвращает её ID.
func (s *Storage) CreateCampaign(ctx context.Context, c models.Campaign) (int64, error) {
	const op = "storage.CreateCampaign"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO campaigns (user_uid, name, search_query, message_template,
				  daily_limit, status, schedule)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int64
	if err := s.DB.QueryRowContext(ctx, query,
		c.UserUID, c.Name, c.SearchQuery, c.MessageTemplate,
		c.DailyLimit, c.Status, c.Schedule).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetCampaign возвращает кампанию по ID.
func (s *Storage) GetCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	const op = "storage.GetCampaign"
	c, err := getCampaign(ctx, s.DB, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return c, nil
}

// ListCampaignsByUser возвращает все кампании пользователя.
func (s *Storage) ListCampaignsByUser(ctx context.Context, userUID string) ([]*models.Campaign, error) {
	const op = "storage.ListCampaignsByUser"
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE user_uid = $1 ORDER BY id`
	return s.listCampaigns(ctx, op, query, userUID)
}

// ListActiveCampaigns возвращает активные кампании вместе с владельцами.
// Используется при старте процесса для восстановления расписания.
func (s *Storage) ListActiveCampaigns(ctx context.Context) ([]models.ActiveCampaign, error) {
	const op = "storage.ListActiveCampaigns"
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = $1 ORDER BY id`
	campaigns, err := s.listCampaigns(ctx, op, query, models.CampaignActive)
	if err != nil {
		return nil, err
	}
	result := make([]models.ActiveCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		result = append(result, models.ActiveCampaign{Campaign: c, UserUID: c.UserUID})
	}
	return result, nil
}

func (s *Storage) listCampaigns(ctx context.Context, op, query string, args ...any) ([]*models.Campaign, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateCampaignStatus меняет статус кампании, принадлежащей пользователю.
func (s *Storage) UpdateCampaignStatus(ctx context.Context, id int64, userUID, status string) error {
	const op = "storage.UpdateCampaignStatus"
	return s.execOwned(ctx, op,
		`UPDATE campaigns SET status = $1 WHERE id = $2 AND user_uid = $3`, status, id, userUID)
}

// DeleteCampaign удаляет кампанию пользователя вместе с журналом.
func (s *Storage) DeleteCampaign(ctx context.Context, id int64, userUID string) error {
	const op = "storage.DeleteCampaign"
	return s.execOwned(ctx, op, `DELETE FROM campaigns WHERE id = $1 AND user_uid = $2`, id, userUID)
}

func (s *Storage) execOwned(ctx context.Context, op, query string, args ...any) error {
	result, err := s.DB.ExecContext(ctx, query, args...)
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

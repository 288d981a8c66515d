package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"styledecor/internal/domain"
	"styledecor/internal/models"
)

const serviceColumns = `id, title, category, description, price, unit, image_url, created_by, created_at`

func (db *DB) CreateService(ctx context.Context, service *models.Service) error {
	if service.ID == "" {
		service.ID = newID()
	}
	query := `INSERT INTO services (` + serviceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, db.rebind(query),
		service.ID,
		service.Title,
		service.Category,
		service.Description,
		service.Price,
		service.Unit,
		service.ImageURL,
		service.CreatedBy,
		service.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (db *DB) GetService(ctx context.Context, id string) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
	s, err := scanService(db.QueryRowContext(ctx, db.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

// ListServices возвращает каталог, новые сверху
func (db *DB) ListServices(ctx context.Context) ([]*models.Service, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := make([]*models.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func scanService(row rowScanner) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.Title, &s.Category, &s.Description, &s.Price, &s.Unit, &s.ImageURL, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitesync/bitesync/internal/models"
	"github.com/bitesync/bitesync/internal/remote"
)

type MenuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

func (r *MenuRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	query := `
        SELECT id, name, description, image_url, display_order, active
        FROM categories
        WHERE active = true
        ORDER BY display_order
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, remote.Classify(err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		category := models.Category{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.ImageURL,
			&category.DisplayOrder,
			&category.Active,
		)
		if err != nil {
			return nil, remote.Classify(err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, remote.Classify(err)
	}
	return categories, nil
}

func (r *MenuRepository) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	query := `
        SELECT id, category_id, name, description, price, image_url, display_order, available
        FROM menu_items
        WHERE available = true
        ORDER BY display_order
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, remote.Classify(err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		item := models.MenuItem{}
		err := rows.Scan(
			&item.ID,
			&item.CategoryID,
			&item.Name,
			&item.Description,
			&item.Price,
			&item.ImageURL,
			&item.DisplayOrder,
			&item.Available,
		)
		if err != nil {
			return nil, remote.Classify(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, remote.Classify(err)
	}
	return items, nil
}

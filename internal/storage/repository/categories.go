package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nesi-market/nesi/internal/models"
)

// ListCategories возвращает дерево категорий с подкатегориями, отсортированное по имени.
func (s *Storage) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "storage.ListCategories"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT c.id, c.name, c.slug, s.id, s.name, s.slug, s.min_price
		 FROM categories c
		 LEFT JOIN subcategories s ON s.category_id = c.id
		 ORDER BY c.name, c.id, s.name, s.id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		var subID, minPrice sql.NullInt64
		var subName, subSlug sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &subID, &subName, &subSlug, &minPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if n := len(result); n == 0 || result[n-1].ID != c.ID {
			c.Subcategories = make([]models.Subcategory, 0)
			result = append(result, c)
		}
		if subID.Valid {
			last := &result[len(result)-1]
			last.Subcategories = append(last.Subcategories, models.Subcategory{
				ID:         subID.Int64,
				CategoryID: c.ID,
				Name:       subName.String,
				Slug:       subSlug.String,
				MinPrice:   minPrice.Int64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSubcategoryMinPrice меняет минимальную цену подкатегории.
func (s *Storage) UpdateSubcategoryMinPrice(ctx context.Context, subcategoryID, minPrice int64) error {
	const op = "storage.UpdateSubcategoryMinPrice"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subcategories SET min_price = $1 WHERE id = $2`, minPrice, subcategoryID)
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

const categoryColumns = `id, name, icon, color, type, is_default`

func scanCategory(row interface{ Scan(...any) error }) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Type, &c.IsDefault)
	return c, err
}

// GetCategories returns every category, expense before income, by name.
func (r repo) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY type, name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByID returns the category or common.ErrNotFound.
func (r repo) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	c, err := scanCategory(r.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// CreateCategory inserts a category. A name already used by a category of
// the same type yields common.ErrDuplicateEntry.
func (r repo) CreateCategory(ctx context.Context, c *model.Category) error {
	if err := validateEntity(ctx, c); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(c.Name)

	_, err := r.exec(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Icon, c.Color, c.Type, c.IsDefault)
	if err != nil {
		return fmt.Errorf("failed to create category %q: %w", c.Name, err)
	}
	slog.Debug("created category", "id", c.ID, "name", c.Name, "type", c.Type)
	return nil
}

// UpdateCategory overwrites name, icon, color and type.
func (r repo) UpdateCategory(ctx context.Context, c *model.Category) error {
	if err := validateEntity(ctx, c); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(c.Name)
	return r.execOne(ctx, "update category", c.ID, `
		UPDATE categories SET name = ?, icon = ?, color = ?, type = ?
		WHERE id = ?`,
		c.Name, c.Icon, c.Color, c.Type, c.ID)
}

// DeleteCategory removes one category row. Transactions and budgets that
// reference it by name are left alone.
func (r repo) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return r.execOne(ctx, "delete category", id, `DELETE FROM categories WHERE id = ?`, id)
}

// CategoryNameExists reports whether a category other than excludeID uses
// name with the given type, ignoring case and surrounding whitespace.
func (r repo) CategoryNameExists(ctx context.Context, name string, t model.CategoryType, excludeID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ? COLLATE NOCASE AND type = ? AND id != ?`,
		strings.TrimSpace(name), t, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}

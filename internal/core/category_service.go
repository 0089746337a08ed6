package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryService interface {
	Create(ctx context.Context, c Category) (*Category, error)
	Get(ctx context.Context, id uuid.UUID) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	// Update replaces every editable field. Activation is unchanged.
	Update(ctx context.Context, id uuid.UUID, c Category) (*Category, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	pool *pgxpool.Pool
}

func NewCategoryService(pool *pgxpool.Pool) CategoryService {
	return &categoryService{pool: pool}
}

const categoryColumns = `id, name, COALESCE(description, ''), parent_category_id, margin_percentage,
	is_active, created_at, updated_at`

func scanCategory(row pgx.Row) (*Category, error) {
	c := &Category{}
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ParentCategoryID, &c.MarginPercentage,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c Category) validate(id uuid.UUID) error {
	if strings.TrimSpace(c.Name) == "" {
		return validationError("name", "name is required")
	}
	if c.MarginPercentage.IsNegative() {
		return validationError("margin_percentage", "margin_percentage must not be negative")
	}
	if c.ParentCategoryID != nil && *c.ParentCategoryID == id {
		return validationError("parent_category_id", "a category cannot be its own parent")
	}
	return nil
}

func (s *categoryService) Create(ctx context.Context, c Category) (*Category, error) {
	if err := c.validate(uuid.Nil); err != nil {
		return nil, err
	}
	out, err := scanCategory(s.pool.QueryRow(ctx, `
		INSERT INTO categories (name, description, parent_category_id, margin_percentage)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		strings.TrimSpace(c.Name), nullIfEmpty(c.Description), c.ParentCategoryID, c.MarginPercentage))
	if err != nil {
		return nil, storageError(err, "insert category")
	}
	return out, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("category", id)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (s *categoryService) List(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	categories, err := collectRows(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return categories, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, c Category) (*Category, error) {
	if err := c.validate(id); err != nil {
		return nil, err
	}
	out, err := scanCategory(s.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, description = $3, parent_category_id = $4, margin_percentage = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+categoryColumns,
		id, strings.TrimSpace(c.Name), nullIfEmpty(c.Description), c.ParentCategoryID, c.MarginPercentage))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("category", id)
		}
		return nil, storageError(err, "update category")
	}
	return out, nil
}

func (s *categoryService) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE categories SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return storageError(err, "deactivate category")
	}
	if tag.RowsAffected() == 0 {
		return notFound("category", id)
	}
	return nil
}

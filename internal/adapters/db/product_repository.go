// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
)

const productColumns = `id, business_id, name, sku, barcode, category,
	current_quantity, cost, price, location, created_at, updated_at`

// ProductRepository implements ports.ProductRepository
type ProductRepository struct {
	db     ports.Database
	logger *slog.Logger
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new product repository
func NewProductRepository(db ports.Database, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "product")),
	}
}

// Save creates a new product
func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (
			id, business_id, name, sku, barcode, category,
			current_quantity, cost, price, location, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.BusinessID, p.Name, nullString(p.SKU), nullString(p.Barcode), p.Category,
		p.CurrentQuantity, p.Cost, p.Price, nullString(p.Location), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.String("product_id", p.ID.String()),
		slog.String("business_id", p.BusinessID.String()))

	return nil
}

// Update replaces the mutable fields of a product
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products SET
			name = $3, sku = $4, barcode = $5, category = $6,
			current_quantity = $7, cost = $8, price = $9, location = $10,
			updated_at = $11
		WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL
		RETURNING created_at`

	p.UpdatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		p.ID, p.BusinessID, p.Name, nullString(p.SKU), nullString(p.Barcode), p.Category,
		p.CurrentQuantity, p.Cost, p.Price, nullString(p.Location), p.UpdatedAt,
	).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// FindByID retrieves a product within a business. A missing product yields nil, nil.
func (r *ProductRepository) FindByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return p, nil
}

// FindAll lists products with filtering and pagination
func (r *ProductRepository) FindAll(ctx context.Context, params ports.ProductListParams) ([]*domain.Product, int64, error) {
	where := squirrel.And{
		squirrel.Eq{"business_id": params.BusinessID},
		squirrel.Expr("deleted_at IS NULL"),
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"name": like},
			squirrel.ILike{"sku": like},
		})
	}
	if params.Category != "" {
		where = append(where, squirrel.Eq{"category": params.Category})
	}
	if params.Location != "" {
		where = append(where, squirrel.Eq{"location": params.Location})
	}
	if params.Barcode != "" {
		where = append(where, squirrel.Eq{"barcode": params.Barcode})
	}

	countSQL, countArgs, err := squirrel.Select("COUNT(*)").
		From("products").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	qb := squirrel.Select(productColumns).
		From("products").
		Where(where).
		OrderBy("name ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar)
	if params.Limit > 0 {
		qb = qb.Limit(uint64(params.Limit))
	}
	if params.Offset > 0 {
		qb = qb.Offset(uint64(params.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := ScanMany(rows, func(rows pgx.Rows) (*domain.Product, error) {
		return scanProduct(rows)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan products: %w", err)
	}

	return products, total, nil
}

// SoftDelete marks a product as deleted
func (r *ProductRepository) SoftDelete(ctx context.Context, businessID, id uuid.UUID) error {
	query := `UPDATE products SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, businessID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to soft delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	r.logger.InfoContext(ctx, "product soft deleted",
		slog.String("product_id", id.String()))

	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	p := &domain.Product{}
	var sku, barcode, location sql.NullString

	err := row.Scan(
		&p.ID, &p.BusinessID, &p.Name, &sku, &barcode, &p.Category,
		&p.CurrentQuantity, &p.Cost, &p.Price, &location, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.SKU = sku.String
	p.Barcode = barcode.String
	p.Location = location.String

	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Package catalog provides the read facade and the admin write side for
// products, backed by PostgreSQL.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound means the product does not exist. Callers render this as an
	// empty state, not as a failure; transient errors come back wrapped and
	// distinct.
	ErrNotFound = errors.New("product not found")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	Paginate(ctx context.Context, page, pageSize int) ([]Product, error)
	Search(ctx context.Context, term string, page, pageSize int) ([]Product, error)
	ListByCategory(ctx context.Context, category string, page, pageSize int) ([]Product, error)

	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product, updatePrice, updateStock bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func clampPage(page, pageSize int) (limit, offset int, ok bool) {
	if page < 1 {
		return 0, 0, false
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return pageSize, (page - 1) * pageSize, true
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, category, price::text, image_url, stock, created_at, updated_at
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *PGRepo) list(ctx context.Context, search, category string, page, pageSize int) ([]Product, error) {
	limit, offset, ok := clampPage(page, pageSize)
	if !ok {
		return []Product{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, category, price::text, image_url, stock, created_at, updated_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR category ILIKE '%'||$1||'%')
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`, strings.TrimSpace(search), category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Paginate(ctx context.Context, page, pageSize int) ([]Product, error) {
	return r.list(ctx, "", "", page, pageSize)
}

func (r *PGRepo) Search(ctx context.Context, term string, page, pageSize int) ([]Product, error) {
	return r.list(ctx, term, "", page, pageSize)
}

func (r *PGRepo) ListByCategory(ctx context.Context, category string, page, pageSize int) ([]Product, error) {
	return r.list(ctx, "", category, page, pageSize)
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, category, price, image_url, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
	`, p.ID, p.Name, p.Description, p.Category, p.Price, p.ImageURL, p.Stock)
	return err
}

func (r *PGRepo) Update(ctx context.Context, p *Product, updatePrice, updateStock bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE products
		SET name        = COALESCE(NULLIF($2,''), name),
		    description = COALESCE(NULLIF($3,''), description),
		    category    = COALESCE(NULLIF($4,''), category),
		    image_url   = COALESCE(NULLIF($5,''), image_url),
		    price       = CASE WHEN $6 THEN $7::numeric ELSE price END,
		    stock       = CASE WHEN $8 THEN $9 ELSE stock END,
		    updated_at  = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Category, p.ImageURL, updatePrice, nullIfEmpty(p.Price), updateStock, p.Stock)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

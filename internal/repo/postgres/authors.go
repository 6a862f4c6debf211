package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jcervantes/blogapi/internal/domain/author"
	"github.com/jcervantes/blogapi/internal/observability"
)

type AuthorsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewAuthorsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *AuthorsRepo {
	return &AuthorsRepo{pool: pool, metrics: metrics}
}

func (r *AuthorsRepo) Create(ctx context.Context, name string) (author.Author, error) {
	var a author.Author

	err := r.metrics.ObserveDB("authors.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO authors (name)
	         VALUES ($1)
	         RETURNING id, name, created_at`,
			name,
		).Scan(&a.ID, &a.Name, &a.CreatedAt)
	})

	if err != nil {
		return author.Author{}, err
	}

	return a, nil
}

func (r *AuthorsRepo) GetByID(ctx context.Context, id int64) (author.Author, error) {
	var a author.Author

	err := r.metrics.ObserveDB("authors.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, created_at
	         FROM authors
	         WHERE id = $1`,
			id,
		).Scan(&a.ID, &a.Name, &a.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return author.Author{}, author.ErrNotFound
		}

		return author.Author{}, err
	}

	return a, nil
}

func (r *AuthorsRepo) List(ctx context.Context) ([]author.Author, error) {
	var out []author.Author

	err := r.metrics.ObserveDB("authors.list", func() error {
		rows, err := r.pool.Query(
			ctx,
			`SELECT id, name, created_at
	         FROM authors
	         ORDER BY id`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a author.Author

			if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
				return err
			}

			out = append(out, a)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []author.Author{}
	}

	return out, nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jcervantes/blogapi/internal/domain/post"
	"github.com/jcervantes/blogapi/internal/observability"
)

type PostsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, metrics: metrics}
}

func (r *PostsRepo) Create(ctx context.Context, title, content string, authorID int64) (post.Post, error) {
	var p post.Post

	err := r.metrics.ObserveDB("posts.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO posts (title, content, author_id)
	         VALUES ($1, $2, $3)
	         RETURNING id, title, content, author_id, created_at`,
			title, content, authorID,
		).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt)
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id int64) (post.Post, error) {
	var p post.Post

	err := r.metrics.ObserveDB("posts.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, title, content, author_id, created_at
	         FROM posts
	         WHERE id = $1`,
			id,
		).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	var out []post.Post

	err := r.metrics.ObserveDB("posts.list", func() error {
		rows, err := r.pool.Query(
			ctx,
			`SELECT id, title, content, author_id, created_at
	         FROM posts
	         ORDER BY id`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p post.Post

			if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt); err != nil {
				return err
			}

			out = append(out, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []post.Post{}
	}

	return out, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id int64) error {
	return r.metrics.ObserveDB("posts.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return post.ErrNotFound
		}

		return nil
	})
}

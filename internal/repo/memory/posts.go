package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jcervantes/blogapi/internal/domain/post"
)

type PostsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]post.Post
}

func NewPostsRepo() *PostsRepo {
	return &PostsRepo{
		nextID: 1,
		items:  make(map[int64]post.Post),
	}
}

func (r *PostsRepo) Create(ctx context.Context, title, content string, authorID int64) (post.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := post.Post{
		ID:        r.nextID,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}
	r.nextID++

	r.items[p.ID] = p

	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id int64) (post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	return p, nil
}

func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]post.Post, 0, len(r.items))

	for id := int64(1); id < r.nextID; id++ {
		if p, ok := r.items[id]; ok {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return post.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

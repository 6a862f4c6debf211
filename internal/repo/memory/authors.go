package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jcervantes/blogapi/internal/domain/author"
)

type AuthorsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]author.Author
}

func NewAuthorsRepo() *AuthorsRepo {
	return &AuthorsRepo{
		nextID: 1,
		items:  make(map[int64]author.Author),
	}
}

func (r *AuthorsRepo) Create(ctx context.Context, name string) (author.Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := author.Author{
		ID:        r.nextID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	r.nextID++

	r.items[a.ID] = a

	return a, nil
}

func (r *AuthorsRepo) GetByID(ctx context.Context, id int64) (author.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return author.Author{}, author.ErrNotFound
	}

	return a, nil
}

func (r *AuthorsRepo) List(ctx context.Context) ([]author.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]author.Author, 0, len(r.items))

	// serial ids, so ascending id matches insertion order
	for id := int64(1); id < r.nextID; id++ {
		if a, ok := r.items[id]; ok {
			out = append(out, a)
		}
	}

	return out, nil
}

package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcervantes/blogapi/internal/cache"
	"github.com/jcervantes/blogapi/internal/domain/author"
	"github.com/jcervantes/blogapi/internal/http/handlers"
	"github.com/jcervantes/blogapi/internal/repo/memory"
)

type fakeAuthorsRepo struct {
	createFn func(ctx context.Context, name string) (author.Author, error)
	listFn   func(ctx context.Context) ([]author.Author, error)
}

func (f *fakeAuthorsRepo) Create(ctx context.Context, name string) (author.Author, error) {
	if f.createFn != nil {
		return f.createFn(ctx, name)
	}
	return author.Author{ID: 1, Name: name}, nil
}

func (f *fakeAuthorsRepo) List(ctx context.Context) ([]author.Author, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []author.Author{}, nil
}

func TestCreateAuthor(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatusCode int
	}{
		{"success", `{"name":"Ana"}`, http.StatusCreated},
		{"name too short", `{"name":"Al"}`, http.StatusBadRequest},
		{"missing name", `{}`, http.StatusBadRequest},
		{"name not a string", `{"name":7}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewAuthorsHandler(&fakeAuthorsRepo{}, cache.NewMemory(time.Second))

			r := gin.New()
			r.POST("/authors", h.CreateAuthor)

			w := doJSON(r, http.MethodPost, "/authors", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListAuthors_StoreError(t *testing.T) {
	h := handlers.NewAuthorsHandler(&fakeAuthorsRepo{
		listFn: func(ctx context.Context) ([]author.Author, error) {
			return nil, errors.New("boom")
		},
	}, cache.NewMemory(time.Second))

	r := gin.New()
	r.GET("/authors", h.ListAuthors)

	req := httptest.NewRequest(http.MethodGet, "/authors", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// Round-trip against the real in-memory store: a created author shows up in
// the listing exactly once.
func TestAuthors_CreateThenListRoundTrip(t *testing.T) {
	repo := memory.NewAuthorsRepo()
	h := handlers.NewAuthorsHandler(repo, cache.NewMemory(time.Second))

	r := gin.New()
	r.POST("/authors", h.CreateAuthor)
	r.GET("/authors", h.ListAuthors)

	w := doJSON(r, http.MethodPost, "/authors", `{"name":"Gabriel"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body=%s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/authors", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("list status = %d, body=%s", w2.Code, w2.Body.String())
	}

	var authors []author.Author
	if err := json.Unmarshal(w2.Body.Bytes(), &authors); err != nil {
		t.Fatalf("failed to unmarshal list: %v, body=%s", err, w2.Body.String())
	}

	count := 0
	for _, a := range authors {
		if a.Name == "Gabriel" {
			count++
		}
	}

	if count != 1 {
		t.Fatalf("author appears %d times in the listing, want 1", count)
	}
}

// Conditional GET: a matching If-None-Match yields 304 with no body.
func TestListAuthors_ETag(t *testing.T) {
	repo := memory.NewAuthorsRepo()
	if _, err := repo.Create(context.Background(), "Ana"); err != nil {
		t.Fatalf("seed author: %v", err)
	}

	h := handlers.NewAuthorsHandler(repo, cache.NewMemory(time.Minute))

	r := gin.New()
	r.GET("/authors", h.ListAuthors)

	req := httptest.NewRequest(http.MethodGet, "/authors", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag header")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/authors", nil)
	req2.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want %d", w2.Code, http.StatusNotModified)
	}
}

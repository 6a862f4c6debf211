package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcervantes/blogapi/internal/auth"
	"github.com/jcervantes/blogapi/internal/cache"
	"github.com/jcervantes/blogapi/internal/domain/author"
	"github.com/jcervantes/blogapi/internal/domain/post"
	"github.com/jcervantes/blogapi/internal/http/handlers"
	"github.com/jcervantes/blogapi/internal/http/middlewares"
	"github.com/jcervantes/blogapi/internal/repo/memory"
)

func jsonBody(s string) io.Reader {
	return bytes.NewBufferString(s)
}

type fakePostsRepo struct {
	createFn func(ctx context.Context, title, content string, authorID int64) (post.Post, error)
	getFn    func(ctx context.Context, id int64) (post.Post, error)
	listFn   func(ctx context.Context) ([]post.Post, error)
	deleteFn func(ctx context.Context, id int64) error

	created []post.Post
}

func (f *fakePostsRepo) Create(ctx context.Context, title, content string, authorID int64) (post.Post, error) {
	if f.createFn != nil {
		p, err := f.createFn(ctx, title, content, authorID)
		if err == nil {
			f.created = append(f.created, p)
		}
		return p, err
	}
	p := post.Post{ID: int64(len(f.created) + 1), Title: title, Content: content, AuthorID: authorID}
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id int64) (post.Post, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return post.Post{}, post.ErrNotFound
}

func (f *fakePostsRepo) List(ctx context.Context) ([]post.Post, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []post.Post{}, nil
}

func (f *fakePostsRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return post.ErrNotFound
}

type fakeAuthorResolver struct {
	existing map[int64]author.Author
}

func (f *fakeAuthorResolver) GetByID(ctx context.Context, id int64) (author.Author, error) {
	a, ok := f.existing[id]
	if !ok {
		return author.Author{}, author.ErrNotFound
	}
	return a, nil
}

func TestCreatePost_PublicMode(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		authors        map[int64]author.Author
		wantStatusCode int
		wantPersisted  int
	}{
		{
			name:           "success",
			body:           `{"title":"Hello","content":"World","authorId":1}`,
			authors:        map[int64]author.Author{1: {ID: 1, Name: "Ana"}},
			wantStatusCode: http.StatusCreated,
			wantPersisted:  1,
		},
		{
			name:           "missing fields",
			body:           `{"title":"Hello"}`,
			authors:        map[int64]author.Author{1: {ID: 1, Name: "Ana"}},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing authorId",
			body:           `{"title":"Hello","content":"World"}`,
			authors:        map[int64]author.Author{1: {ID: 1, Name: "Ana"}},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "nonexistent author",
			body:           `{"title":"Hello","content":"World","authorId":42}`,
			authors:        map[int64]author.Author{1: {ID: 1, Name: "Ana"}},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{}
			h := handlers.NewPostsHandler(repo, &fakeAuthorResolver{existing: tt.authors}, cache.NewMemory(time.Second), false)

			r := gin.New()
			r.POST("/posts", h.CreatePost)

			w := doJSON(r, http.MethodPost, "/posts", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if len(repo.created) != tt.wantPersisted {
				t.Fatalf("persisted %d posts, want %d", len(repo.created), tt.wantPersisted)
			}
		})
	}
}

// In protected mode the post is attributed to the bearer of the token, not
// to whatever authorId the body claims.
func TestCreatePost_ProtectedModeUsesCallerIdentity(t *testing.T) {
	users := memory.NewUsersRepo()
	u, err := users.Create(context.Background(), "ana@x.com", "irrelevant-hash", "Ana")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	m := auth.NewManager("test-secret", time.Hour)
	token, err := m.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}

	repo := &fakePostsRepo{}
	h := handlers.NewPostsHandler(repo, &fakeAuthorResolver{}, cache.NewMemory(time.Second), true)
	mw := middlewares.NewAuthMiddleware(m, users)

	r := gin.New()
	r.POST("/posts", mw.RequireAuth(), h.CreatePost)

	req := httptest.NewRequest(http.MethodPost, "/posts",
		jsonBody(`{"title":"Hello","content":"World","authorId":999}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	if len(repo.created) != 1 || repo.created[0].AuthorID != u.ID {
		t.Fatalf("post attributed to %v, want author %d", repo.created, u.ID)
	}

	// and without a token the route is closed
	req2 := httptest.NewRequest(http.MethodPost, "/posts",
		jsonBody(`{"title":"Hello","content":"World"}`))
	req2.Header.Set("Content-Type", "application/json")

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w2.Code, http.StatusUnauthorized)
	}
}

func TestGetPostByID(t *testing.T) {
	stored := post.Post{ID: 5, Title: "Hello", Content: "World", AuthorID: 1}

	repo := &fakePostsRepo{
		getFn: func(ctx context.Context, id int64) (post.Post, error) {
			if id == stored.ID {
				return stored, nil
			}
			return post.Post{}, post.ErrNotFound
		},
	}

	h := handlers.NewPostsHandler(repo, &fakeAuthorResolver{}, cache.NewMemory(time.Second), false)

	r := gin.New()
	r.GET("/posts/:id", h.GetPostByID)

	tests := []struct {
		name           string
		path           string
		wantStatusCode int
		wantBody       string
	}{
		{"found", "/posts/5", http.StatusOK, ""},
		// a miss is not an error on this route: 200 with a null body
		{"not found", "/posts/6", http.StatusOK, "null"},
		{"bad id", "/posts/abc", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantBody != "" && strings.TrimSpace(w.Body.String()) != tt.wantBody {
				t.Fatalf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDeletePost(t *testing.T) {
	repo := &fakePostsRepo{
		deleteFn: func(ctx context.Context, id int64) error {
			if id == 5 {
				return nil
			}
			return post.ErrNotFound
		},
	}

	h := handlers.NewPostsHandler(repo, &fakeAuthorResolver{}, cache.NewMemory(time.Second), false)

	r := gin.New()
	r.DELETE("/posts/:id", h.DeletePost)

	req := httptest.NewRequest(http.MethodDelete, "/posts/5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, http.StatusNoContent, w.Body.String())
	}

	req2 := httptest.NewRequest(http.MethodDelete, "/posts/6", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d, body=%s", w2.Code, http.StatusNotFound, w2.Body.String())
	}
}

func TestListPosts_StoreError(t *testing.T) {
	repo := &fakePostsRepo{
		listFn: func(ctx context.Context) ([]post.Post, error) {
			return nil, errors.New("connection refused")
		},
	}

	h := handlers.NewPostsHandler(repo, &fakeAuthorResolver{}, cache.NewMemory(time.Second), false)

	r := gin.New()
	r.GET("/posts", h.ListPosts)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	// internal detail must not leak
	if body := w.Body.String(); json.Valid([]byte(body)) {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal([]byte(body), &e)
		if e.Error.Message == "connection refused" {
			t.Fatalf("store error leaked to client: %s", body)
		}
	}
}

// A write must drop the cached list so the next read sees fresh data.
func TestListPosts_CacheInvalidatedOnWrite(t *testing.T) {
	c := cache.NewMemory(time.Minute)

	var repoPosts []post.Post
	listCalls := 0
	repo := &fakePostsRepo{
		listFn: func(ctx context.Context) ([]post.Post, error) {
			listCalls++
			out := make([]post.Post, len(repoPosts))
			copy(out, repoPosts)
			return out, nil
		},
		createFn: func(ctx context.Context, title, content string, authorID int64) (post.Post, error) {
			p := post.Post{ID: int64(len(repoPosts) + 1), Title: title, Content: content, AuthorID: authorID}
			repoPosts = append(repoPosts, p)
			return p, nil
		},
	}

	h := handlers.NewPostsHandler(repo, &fakeAuthorResolver{existing: map[int64]author.Author{1: {ID: 1}}}, c, false)

	r := gin.New()
	r.GET("/posts", h.ListPosts)
	r.POST("/posts", h.CreatePost)

	get := func() string {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET /posts status = %d", w.Code)
		}
		return w.Body.String()
	}

	get()
	get() // second read served from cache

	if listCalls != 1 {
		t.Fatalf("repo.List called %d times, want 1 (second read cached)", listCalls)
	}

	w := doJSON(r, http.MethodPost, "/posts", `{"title":"Hello","content":"World","authorId":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /posts status = %d, body=%s", w.Code, w.Body.String())
	}

	body := get()

	if listCalls != 2 {
		t.Fatalf("repo.List called %d times after write, want 2 (cache invalidated)", listCalls)
	}

	var posts []post.Post
	if err := json.Unmarshal([]byte(body), &posts); err != nil {
		t.Fatalf("failed to unmarshal list: %v, body=%s", err, body)
	}
	if len(posts) != 1 || posts[0].Title != "Hello" {
		t.Fatalf("expected the new post in the list, got %s", body)
	}
}

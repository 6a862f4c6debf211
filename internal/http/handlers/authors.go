package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcervantes/blogapi/internal/cache"
	"github.com/jcervantes/blogapi/internal/config"
	"github.com/jcervantes/blogapi/internal/domain/author"
)

type AuthorsStore interface {
	Create(ctx context.Context, name string) (author.Author, error)
	List(ctx context.Context) ([]author.Author, error)
}

type AuthorsHandler struct {
	repo  AuthorsStore
	cache cache.Store
}

func NewAuthorsHandler(repo AuthorsStore, c cache.Store) *AuthorsHandler {
	return &AuthorsHandler{repo: repo, cache: c}
}

func (h *AuthorsHandler) CreateAuthor(ctx *gin.Context) {
	var req author.CreateAuthorRequest

	// name presence and the 3-char minimum live in the binding tags
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	a, err := h.repo.Create(cctx, req.Name)

	if err != nil {
		RespondInternal(ctx, "Could not create author")
		return
	}

	h.cache.Delete(cctx, cache.AuthorsListKey)

	ctx.JSON(http.StatusCreated, a)
}

func (h *AuthorsHandler) ListAuthors(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if b, ok := h.cache.Get(cctx, cache.AuthorsListKey); ok {
		RespondJSONBytesWithETag(ctx, http.StatusOK, b)
		return
	}

	authors, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list authors")
		return
	}

	b, err := json.Marshal(authors)

	if err != nil {
		RespondInternal(ctx, "Could not list authors")
		return
	}

	h.cache.Set(cctx, cache.AuthorsListKey, b)

	RespondJSONBytesWithETag(ctx, http.StatusOK, b)
}

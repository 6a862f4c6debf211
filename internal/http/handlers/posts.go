package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcervantes/blogapi/internal/cache"
	"github.com/jcervantes/blogapi/internal/config"
	"github.com/jcervantes/blogapi/internal/domain/author"
	"github.com/jcervantes/blogapi/internal/domain/post"
	"github.com/jcervantes/blogapi/internal/http/middlewares"
)

type PostsStore interface {
	Create(ctx context.Context, title, content string, authorID int64) (post.Post, error)
	GetByID(ctx context.Context, id int64) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
	Delete(ctx context.Context, id int64) error
}

type AuthorResolver interface {
	GetByID(ctx context.Context, id int64) (author.Author, error)
}

type PostsHandler struct {
	repo    PostsStore
	authors AuthorResolver
	cache   cache.Store

	// protected mode takes authorId from the authenticated identity;
	// public mode requires it in the body and checks it references a
	// real author.
	protected bool
}

func NewPostsHandler(repo PostsStore, authors AuthorResolver, c cache.Store, protected bool) *PostsHandler {
	return &PostsHandler{repo: repo, authors: authors, cache: c, protected: protected}
}

func (h *PostsHandler) CreatePost(ctx *gin.Context) {
	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	var authorID int64

	if h.protected {
		id, ok := middlewares.UserIDFromContext(ctx)

		if !ok {
			RespondUnAuthorized(ctx, "unauthorized", "Missing authenticated identity")
			return
		}

		authorID = id
	} else {
		if req.AuthorID <= 0 {
			RespondBadRequest(ctx, "authorId is required", nil)
			return
		}

		_, err := h.authors.GetByID(cctx, req.AuthorID)

		if err != nil {
			if errors.Is(err, author.ErrNotFound) {
				RespondBadRequest(ctx, "Author does not exist.", nil)
				return
			}

			RespondInternal(ctx, "Could not create post")
			return
		}

		authorID = req.AuthorID
	}

	p, err := h.repo.Create(cctx, req.Title, req.Content, authorID)

	if err != nil {
		RespondInternal(ctx, "Could not create post")
		return
	}

	h.cache.Delete(cctx, cache.PostsListKey)

	ctx.JSON(http.StatusCreated, p)
}

func (h *PostsHandler) ListPosts(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if b, ok := h.cache.Get(cctx, cache.PostsListKey); ok {
		RespondJSONBytesWithETag(ctx, http.StatusOK, b)
		return
	}

	posts, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	b, err := json.Marshal(posts)

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	h.cache.Set(cctx, cache.PostsListKey, b)

	RespondJSONBytesWithETag(ctx, http.StatusOK, b)
}

func (h *PostsHandler) GetPostByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil {
		RespondBadRequest(ctx, "Invalid post id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		// A missing post is not a failure on this route: the contract is
		// 200 with a null body, matching a plain lookup-and-return.
		if errors.Is(err, post.ErrNotFound) {
			ctx.JSON(http.StatusOK, nil)
			return
		}
		RespondInternal(ctx, "Could not fetch post")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *PostsHandler) DeletePost(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil {
		RespondBadRequest(ctx, "Invalid post id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not delete post")
		return
	}

	h.cache.Delete(cctx, cache.PostsListKey)

	ctx.Status(http.StatusNoContent)
}

package post

import (
	"errors"
	"time"
)

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("post not found")

// AuthorID is optional in the body: on the protected route it is taken from
// the authenticated identity instead.
type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=200"`
	Content  string `json:"content" binding:"required"`
	AuthorID int64  `json:"authorId" binding:"omitempty,min=1"`
}

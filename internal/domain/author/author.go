package author

import (
	"errors"
	"time"
)

type Author struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("author not found")

type CreateAuthorRequest struct {
	Name string `json:"name" binding:"required,min=3"`
}

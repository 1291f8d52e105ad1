package storage

import (
	"errors"

	"minifeed/internal/model"
)

var (
	ErrMissingPostID = errors.New("post id must be set")
	ErrDuplicateID   = errors.New("comment id already exists")
)

type CreateCommentParams struct {
	Comment model.Comment
	// IdempotencyKey, when set, makes a repeated create return the comment
	// stored under the same key instead of appending a new one.
	IdempotencyKey string
}

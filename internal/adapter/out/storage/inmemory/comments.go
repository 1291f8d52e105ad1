package inmemory

import (
	"context"
	"sync"
	"time"

	"minifeed/internal/adapter/out/storage"
	"minifeed/internal/model"

	"github.com/google/uuid"
)

type CommentStorage struct {
	mu sync.RWMutex

	byPost map[string][]model.Comment
	ids    map[string]struct{}
	byKey  map[string]model.Comment
}

func NewCommentStorage() *CommentStorage {
	return &CommentStorage{
		byPost: make(map[string][]model.Comment),
		ids:    make(map[string]struct{}),
		byKey:  make(map[string]model.Comment),
	}
}

// CreateComment appends the comment to its post, assigning an id and a
// creation time when they are unset. A repeated idempotency key returns the
// comment stored under it.
func (s *CommentStorage) CreateComment(_ context.Context, p storage.CreateCommentParams) (model.Comment, error) {
	c := p.Comment
	if c.PostID == "" {
		return model.Comment{}, storage.ErrMissingPostID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.IdempotencyKey != "" {
		if prev, ok := s.byKey[p.IdempotencyKey]; ok {
			return prev, nil
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, taken := s.ids[c.ID]; taken {
		return model.Comment{}, storage.ErrDuplicateID
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.ParentID != nil {
		pid := *c.ParentID
		c.ParentID = &pid
	}

	s.byPost[c.PostID] = append(s.byPost[c.PostID], c)
	s.ids[c.ID] = struct{}{}
	if p.IdempotencyKey != "" {
		s.byKey[p.IdempotencyKey] = c
	}

	return c, nil
}

// GetCommentsByPost returns a copy of the post's comments in append order.
func (s *CommentStorage) GetCommentsByPost(_ context.Context, postID string) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := s.byPost[postID]
	out := make([]model.Comment, len(comments))
	copy(out, comments)
	return out, nil
}

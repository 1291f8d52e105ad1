package inmemory

import (
	"context"
	"sync"
	"time"

	"minifeed/internal/model"

	"github.com/google/uuid"
)

type PostStorage struct {
	mu    sync.RWMutex
	posts []model.Post
}

func NewPostStorage() *PostStorage {
	return &PostStorage{}
}

func (s *PostStorage) CreatePost(_ context.Context, p model.Post) (model.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = append(s.posts, p)
	return p, nil
}

// GetPosts returns every post, newest first.
func (s *PostStorage) GetPosts(_ context.Context) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Post, 0, len(s.posts))
	for i := len(s.posts) - 1; i >= 0; i-- {
		out = append(out, s.posts[i])
	}
	return out, nil
}

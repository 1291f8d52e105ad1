package service

import (
	"context"
	"fmt"
	"strings"

	"minifeed/internal/model"
	"minifeed/pkg/logger"
)

const DefaultUsername = "demo_user"

//go:generate mockgen -source=posts.go -destination=./post_storage_mock.go -package=service minifeed/internal/service PostStorage
type PostStorage interface {
	CreatePost(ctx context.Context, post model.Post) (model.Post, error)
	// GetPosts returns every post, most recently created first.
	GetPosts(ctx context.Context) ([]model.Post, error)
}

type PostService struct {
	postStorage PostStorage
	username    string
}

// NewPostService returns a service that attributes every post to username,
// or to DefaultUsername when it is empty.
func NewPostService(postStorage PostStorage, username string) *PostService {
	if username == "" {
		username = DefaultUsername
	}
	return &PostService{
		postStorage: postStorage,
		username:    username,
	}
}

func (s *PostService) CreatePost(ctx context.Context, req CreatePostRequest) (model.Post, error) {
	check := req
	check.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(check); err != nil {
		requestsRejected.WithLabelValues("create_post").Inc()
		return model.Post{}, validationError(err)
	}

	post, err := s.postStorage.CreatePost(ctx, model.Post{
		Username: s.username,
		Text:     req.Text,
		FileURL:  strings.TrimSpace(req.FileURL),
		FileName: strings.TrimSpace(req.FileName),
	})
	if err != nil {
		logger.FromContext(ctx).Error("error creating post", "error", err)
		return model.Post{}, fmt.Errorf("%w: %w", ErrInternalError, err)
	}

	postsCreated.Inc()
	logger.FromContext(ctx).Info("post created", "post_id", post.ID, "has_file", post.FileURL != "")
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context) ([]model.Post, error) {
	posts, err := s.postStorage.GetPosts(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("error listing posts", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternalError, err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

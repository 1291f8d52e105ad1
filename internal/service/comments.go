package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"minifeed/internal/adapter/out/storage"
	"minifeed/internal/model"
	"minifeed/internal/thread"
	"minifeed/pkg/logger"
)

//go:generate mockgen -source=comments.go -destination=./comment_storage_mock.go -package=service minifeed/internal/service CommentStorage
type CommentStorage interface {
	CreateComment(ctx context.Context, params storage.CreateCommentParams) (model.Comment, error)
	GetCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error)
}

// CommentTree is the reply forest of a post. Roots are shared with the cache
// and must not be modified.
type CommentTree struct {
	PostID string               `json:"postId"`
	Count  int                  `json:"count"`
	Roots  []*model.CommentNode `json:"roots"`
}

type CommentService struct {
	commentStorage CommentStorage
	trees          *treeCache
}

func NewCommentService(commentStorage CommentStorage, treeCacheSize int) *CommentService {
	return &CommentService{
		commentStorage: commentStorage,
		trees:          newTreeCache(treeCacheSize),
	}
}

func (s *CommentService) CreateComment(ctx context.Context, req CreateCommentRequest) (model.Comment, error) {
	log := logger.FromContext(ctx)

	req = req.normalize()
	if err := validate.Struct(req); err != nil {
		requestsRejected.WithLabelValues("create_comment").Inc()
		return model.Comment{}, validationError(err)
	}

	comment, err := s.commentStorage.CreateComment(ctx, storage.CreateCommentParams{
		Comment:        req.toComment(),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		log.Error("error creating comment", "post_id", req.PostID, "error", err)
		return model.Comment{}, fmt.Errorf("%w: %w", ErrInternalError, err)
	}

	s.trees.invalidate(comment.PostID)
	commentsCreated.Inc()

	log.Info("comment created",
		"comment_id", comment.ID,
		"post_id", comment.PostID,
		"top_level", comment.IsTopLevel(),
	)
	return comment, nil
}

// ListComments returns the comments of postID in creation order. Unknown posts
// yield an empty list.
func (s *CommentService) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		requestsRejected.WithLabelValues("list_comments").Inc()
		return nil, &ValidationError{Reason: MsgPostIDRequired}
	}

	comments, err := s.commentStorage.GetCommentsByPost(ctx, postID)
	if err != nil {
		logger.FromContext(ctx).Error("error listing comments", "post_id", postID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInternalError, err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

// GetCommentTree returns the reply forest of postID, served from cache until
// the next comment is created for the post.
func (s *CommentService) GetCommentTree(ctx context.Context, postID string) (CommentTree, error) {
	postID = strings.TrimSpace(postID)

	tree, gen, ok := s.trees.get(postID)
	if ok {
		treeCacheLookups.WithLabelValues("hit").Inc()
		return tree, nil
	}
	treeCacheLookups.WithLabelValues("miss").Inc()

	comments, err := s.ListComments(ctx, postID)
	if err != nil {
		return CommentTree{}, err
	}

	start := time.Now()
	roots, stats := thread.Build(comments)
	treeBuildDuration.Observe(time.Since(start).Seconds())

	if !stats.Clean() {
		reportAnomalies(ctx, postID, stats)
	}

	tree = CommentTree{PostID: postID, Count: stats.Total, Roots: roots}
	s.trees.add(postID, gen, tree)
	return tree, nil
}

func reportAnomalies(ctx context.Context, postID string, stats thread.Stats) {
	treeAnomalies.WithLabelValues("orphan").Add(float64(len(stats.Orphans)))
	treeAnomalies.WithLabelValues("self_reference").Add(float64(len(stats.SelfReferences)))
	treeAnomalies.WithLabelValues("cycle").Add(float64(len(stats.Cycles)))
	treeAnomalies.WithLabelValues("duplicate").Add(float64(len(stats.Duplicates)))

	logger.FromContext(ctx).Warn("comment tree has unresolved references",
		"post_id", postID,
		"orphans", stats.Orphans,
		"self_references", stats.SelfReferences,
		"cycles", stats.Cycles,
		"duplicates", stats.Duplicates,
	)
}

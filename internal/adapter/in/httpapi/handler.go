package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"minifeed/internal/gif"
	"minifeed/internal/model"
	"minifeed/internal/service"
	"minifeed/pkg/logger"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type PostService interface {
	CreatePost(ctx context.Context, req service.CreatePostRequest) (model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
}

type CommentService interface {
	CreateComment(ctx context.Context, req service.CreateCommentRequest) (model.Comment, error)
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
	GetCommentTree(ctx context.Context, postID string) (service.CommentTree, error)
}

type GIFCatalog interface {
	Search(query string) []gif.GIF
	Lookup(id string) (gif.GIF, error)
}

type Handler struct {
	posts    PostService
	comments CommentService
	gifs     GIFCatalog
}

func NewHandler(posts PostService, comments CommentService, gifs GIFCatalog) *Handler {
	return &Handler{posts: posts, comments: comments, gifs: gifs}
}

type errorResponse struct {
	Error string `json:"error"`
}

type createPostBody struct {
	Text     string `json:"text"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}

type createCommentBody struct {
	PostID         string  `json:"postId"`
	ParentID       *string `json:"parentId"`
	Text           string  `json:"text"`
	Image          string  `json:"image"`
	GIF            string  `json:"gif"`
	IdempotencyKey string  `json:"idempotencyKey"`
}

func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var body createPostBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), service.CreatePostRequest{
		Text:     body.Text,
		FileURL:  body.FileURL,
		FileName: body.FileName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) ListComments(c *gin.Context) {
	postID := c.Query("postId")
	if strings.TrimSpace(postID) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: service.MsgPostIDRequired})
		return
	}

	comments, err := h.comments.ListComments(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) CreateComment(c *gin.Context) {
	var body createCommentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}

	// the header wins over the body so retries of the same request stay stable
	key := body.IdempotencyKey
	if hk := c.GetHeader(IdempotencyKeyHeader); hk != "" {
		key = hk
	}

	comment, err := h.comments.CreateComment(c.Request.Context(), service.CreateCommentRequest{
		PostID:         body.PostID,
		ParentID:       body.ParentID,
		Text:           body.Text,
		Image:          body.Image,
		GIF:            body.GIF,
		IdempotencyKey: key,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) CommentTree(c *gin.Context) {
	postID := c.Query("postId")
	if strings.TrimSpace(postID) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: service.MsgPostIDRequired})
		return
	}

	tree, err := h.comments.GetCommentTree(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *Handler) SearchGIFs(c *gin.Context) {
	c.JSON(http.StatusOK, h.gifs.Search(c.Query("q")))
}

func (h *Handler) GetGIF(c *gin.Context) {
	g, err := h.gifs.Lookup(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func badBody(c *gin.Context, err error) {
	logger.FromContext(c.Request.Context()).Warn("invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
}

func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Reason})
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, gif.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Something went wrong"})
	}
}

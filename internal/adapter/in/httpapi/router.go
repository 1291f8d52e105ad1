package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/post", h.ListPosts)
	api.POST("/post", h.CreatePost)
	api.GET("/comments", h.ListComments)
	api.POST("/comments", h.CreateComment)
	api.GET("/comments/tree", h.CommentTree)
	api.GET("/gifs", h.SearchGIFs)
	api.GET("/gifs/:id", h.GetGIF)

	return r
}

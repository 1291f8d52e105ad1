package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"minifeed/config"
	"minifeed/internal/adapter/in/httpapi"
	badgerstore "minifeed/internal/adapter/out/storage/badger"
	memstore "minifeed/internal/adapter/out/storage/inmemory"
	pgstore "minifeed/internal/adapter/out/storage/postgres"
	"minifeed/internal/gif"
	"minifeed/internal/service"
	"minifeed/pkg/logger"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg     config.Config
	srv     *http.Server
	pool    *pgxpool.Pool
	kv      *badgerstore.DB
	closers []func() error
}

func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{cfg: cfg}

	var (
		postStorage    service.PostStorage
		commentStorage service.CommentStorage
	)

	switch cfg.StorageType {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("pgxpool: %w", err)
		}
		a.pool = pool
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		postStorage = pgstore.NewPostStorage(pool, trmpgx.DefaultCtxGetter)
		commentStorage = pgstore.NewCommentStorage(pool, trmpgx.DefaultCtxGetter)

	case config.StorageBadger:
		bcfg := badgerstore.DefaultConfig()
		bcfg.Path = cfg.Badger.Path
		bcfg.GCInterval = cfg.Badger.GCInterval
		bcfg.Logger = log.With("component", "badger")

		db, err := badgerstore.Open(bcfg)
		if err != nil {
			return nil, err
		}
		a.kv = db

		posts, err := badgerstore.NewPostStorage(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		comments, err := badgerstore.NewCommentStorage(db)
		if err != nil {
			_ = posts.Close()
			_ = db.Close()
			return nil, err
		}
		a.closers = append(a.closers, posts.Close, comments.Close)
		postStorage, commentStorage = posts, comments

	default:
		postStorage = memstore.NewPostStorage()
		commentStorage = memstore.NewCommentStorage()
	}

	catalog, err := loadCatalog(cfg.Feed.GIFCatalogPath)
	if err != nil {
		a.close()
		return nil, err
	}

	postSvc := service.NewPostService(postStorage, cfg.Feed.DemoUsername)
	commentSvc := service.NewCommentService(commentStorage, cfg.Feed.TreeCacheSize)

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.NewHandler(postSvc, commentSvc, catalog), log)

	addr := ":" + cfg.HTTP.Port
	a.srv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("app initialized", "addr", addr, "storage", cfg.StorageType, "gifs", catalog.Len())
	return a, nil
}

func loadCatalog(path string) (*gif.Catalog, error) {
	if path == "" {
		return gif.Default()
	}
	return gif.LoadFile(path)
}

// Handler exposes the HTTP routes, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

// Run serves HTTP until ctx is cancelled or the server fails, then shuts down
// and releases the storage.
func (a *App) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		shCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shCtx)
	})

	if a.kv != nil {
		g.Go(func() error {
			return a.kv.RunGC(gctx)
		})
	}

	return g.Wait()
}

func (a *App) close() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
	if a.kv != nil {
		_ = a.kv.Close()
		a.kv = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

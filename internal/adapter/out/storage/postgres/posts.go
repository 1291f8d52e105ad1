package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"minifeed/internal/model"
	"minifeed/pkg/tableinfo"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var postColumns = []string{
	tableinfo.PostIDColumn,
	tableinfo.PostUsernameColumn,
	tableinfo.PostTextColumn,
	tableinfo.PostFileURLColumn,
	tableinfo.PostFileNameColumn,
	tableinfo.PostCreatedAtColumn,
}

type PostStorage struct {
	db     trmpgx.Tr
	getter *trmpgx.CtxGetter
}

func NewPostStorage(db trmpgx.Tr, getter *trmpgx.CtxGetter) *PostStorage {
	return &PostStorage{db: db, getter: getter}
}

func (s *PostStorage) CreatePost(ctx context.Context, p model.Post) (model.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query, args, err := sq.
		Insert(tableinfo.PostsTableName).
		Columns(postColumns...).
		Values(p.ID, p.Username, p.Text, p.FileURL, p.FileName, p.CreatedAt).
		Suffix("RETURNING " + joinColumns(postColumns)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return model.Post{}, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	tr := s.getter.DefaultTrOrDB(ctx, s.db)
	out, err := scanPost(tr.QueryRow(ctx, query, args...))
	if err != nil {
		return model.Post{}, fmt.Errorf("exec insert post: %w", err)
	}
	return out, nil
}

// GetPosts returns every post, newest first.
func (s *PostStorage) GetPosts(ctx context.Context) ([]model.Post, error) {
	query, args, err := sq.
		Select(postColumns...).
		From(tableinfo.PostsTableName).
		OrderBy(tableinfo.PostSeqColumn + " DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	tr := s.getter.DefaultTrOrDB(ctx, s.db)
	rows, err := tr.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec select posts: %w", err)
	}
	defer rows.Close()

	out := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

func scanPost(row pgx.Row) (model.Post, error) {
	var p model.Post
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.Text,
		&p.FileURL,
		&p.FileName,
		&p.CreatedAt,
	)
	return p, err
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

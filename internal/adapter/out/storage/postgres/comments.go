package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minifeed/internal/adapter/out/storage"
	"minifeed/internal/model"
	"minifeed/pkg/tableinfo"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var commentColumns = []string{
	tableinfo.CommentIDColumn,
	tableinfo.CommentPostIDColumn,
	tableinfo.CommentParentIDColumn,
	tableinfo.CommentTextColumn,
	tableinfo.CommentImageColumn,
	tableinfo.CommentGIFColumn,
	tableinfo.CommentCreatedAtColumn,
}

type CommentStorage struct {
	db     trmpgx.Tr
	getter *trmpgx.CtxGetter
}

func NewCommentStorage(db trmpgx.Tr, getter *trmpgx.CtxGetter) *CommentStorage {
	return &CommentStorage{db: db, getter: getter}
}

func (s *CommentStorage) CreateComment(ctx context.Context, p storage.CreateCommentParams) (model.Comment, error) {
	c := p.Comment
	if c.PostID == "" {
		return model.Comment{}, storage.ErrMissingPostID
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	var key *string
	if p.IdempotencyKey != "" {
		key = &p.IdempotencyKey
	}

	suffix := "RETURNING " + joinColumns(commentColumns)
	if key != nil {
		suffix = fmt.Sprintf(
			"ON CONFLICT (%s) WHERE %s IS NOT NULL DO NOTHING %s",
			tableinfo.CommentIdempotencyKeyColumn,
			tableinfo.CommentIdempotencyKeyColumn,
			suffix,
		)
	}

	query, args, err := sq.
		Insert(tableinfo.CommentsTableName).
		Columns(
			tableinfo.CommentIDColumn,
			tableinfo.CommentPostIDColumn,
			tableinfo.CommentParentIDColumn,
			tableinfo.CommentTextColumn,
			tableinfo.CommentImageColumn,
			tableinfo.CommentGIFColumn,
			tableinfo.CommentIdempotencyKeyColumn,
			tableinfo.CommentCreatedAtColumn,
		).
		Values(c.ID, c.PostID, c.ParentID, c.Text, c.Image, c.GIF, key, c.CreatedAt).
		Suffix(suffix).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return model.Comment{}, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	tr := s.getter.DefaultTrOrDB(ctx, s.db)
	out, err := scanComment(tr.QueryRow(ctx, query, args...))
	switch {
	case err == nil:
		return out, nil
	case key != nil && errors.Is(err, pgx.ErrNoRows):
		// the key was used before; return what it stored
		return s.getCommentByIdempotencyKey(ctx, *key)
	case isUniqueViolation(err):
		return model.Comment{}, fmt.Errorf("%w: %s", storage.ErrDuplicateID, c.ID)
	default:
		return model.Comment{}, fmt.Errorf("exec insert comment: %w", err)
	}
}

func (s *CommentStorage) getCommentByIdempotencyKey(ctx context.Context, key string) (model.Comment, error) {
	query, args, err := sq.
		Select(commentColumns...).
		From(tableinfo.CommentsTableName).
		Where(sq.Eq{tableinfo.CommentIdempotencyKeyColumn: key}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return model.Comment{}, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	tr := s.getter.DefaultTrOrDB(ctx, s.db)
	out, err := scanComment(tr.QueryRow(ctx, query, args...))
	if err != nil {
		return model.Comment{}, fmt.Errorf("exec select comment by idempotency key: %w", err)
	}
	return out, nil
}

// GetCommentsByPost returns the comments of postID in insertion order.
func (s *CommentStorage) GetCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	query, args, err := sq.
		Select(commentColumns...).
		From(tableinfo.CommentsTableName).
		Where(sq.Eq{tableinfo.CommentPostIDColumn: postID}).
		OrderBy(tableinfo.CommentSeqColumn + " ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingQuery, err)
	}

	tr := s.getter.DefaultTrOrDB(ctx, s.db)
	rows, err := tr.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec select comments: %w", err)
	}
	defer rows.Close()

	out := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

func scanComment(row pgx.Row) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.ParentID,
		&c.Text,
		&c.Image,
		&c.GIF,
		&c.CreatedAt,
	)
	return c, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

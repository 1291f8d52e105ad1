package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"minifeed/internal/adapter/out/storage"
	"minifeed/internal/model"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var commentRowColumns = []string{"id", "post_id", "parent_id", "text", "image", "gif", "created_at"}

func strPtr(s string) *string {
	return &s
}

func TestCommentStorage_CreateComment(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		params  storage.CreateCommentParams
		setup   func(m pgxmock.PgxPoolIface)
		want    model.Comment
		wantErr error
		errText string
	}{
		{
			name:    "missing post id",
			params:  storage.CreateCommentParams{Comment: model.Comment{Text: "x"}},
			setup:   func(_ pgxmock.PgxPoolIface) {},
			wantErr: storage.ErrMissingPostID,
		},
		{
			name: "top level comment",
			params: storage.CreateCommentParams{
				Comment: model.Comment{PostID: "p1", Text: "hello"},
			},
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments (id,post_id,parent_id,text,image,gif,idempotency_key,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, post_id")).
					WithArgs(pgxmock.AnyArg(), "p1", pgxmock.AnyArg(), "hello", "", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows(commentRowColumns).
						AddRow("c1", "p1", (*string)(nil), "hello", "", "", now))
			},
			want: model.Comment{ID: "c1", PostID: "p1", Text: "hello", CreatedAt: now},
		},
		{
			name: "reply with idempotency key",
			params: storage.CreateCommentParams{
				Comment:        model.Comment{ID: "c2", PostID: "p1", ParentID: strPtr("c1"), GIF: "https://g/cat.gif", CreatedAt: now},
				IdempotencyKey: "k1",
			},
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING RETURNING")).
					WithArgs("c2", "p1", pgxmock.AnyArg(), "", "", "https://g/cat.gif", pgxmock.AnyArg(), now).
					WillReturnRows(pgxmock.NewRows(commentRowColumns).
						AddRow("c2", "p1", strPtr("c1"), "", "", "https://g/cat.gif", now))
			},
			want: model.Comment{ID: "c2", PostID: "p1", ParentID: strPtr("c1"), GIF: "https://g/cat.gif", CreatedAt: now},
		},
		{
			name: "replayed idempotency key returns stored comment",
			params: storage.CreateCommentParams{
				Comment:        model.Comment{PostID: "p1", Text: "again"},
				IdempotencyKey: "k1",
			},
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
					WillReturnRows(pgxmock.NewRows(commentRowColumns))
				m.ExpectQuery(regexp.QuoteMeta("SELECT id, post_id, parent_id, text, image, gif, created_at FROM comments WHERE idempotency_key = $1")).
					WithArgs("k1").
					WillReturnRows(pgxmock.NewRows(commentRowColumns).
						AddRow("c-orig", "p1", (*string)(nil), "again", "", "", now))
			},
			want: model.Comment{ID: "c-orig", PostID: "p1", Text: "again", CreatedAt: now},
		},
		{
			name: "duplicate id",
			params: storage.CreateCommentParams{
				Comment: model.Comment{ID: "c1", PostID: "p1", Text: "x"},
			},
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: storage.ErrDuplicateID,
		},
		{
			name: "db error",
			params: storage.CreateCommentParams{
				Comment: model.Comment{PostID: "p1", Text: "boom"},
			},
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
					WillReturnError(errors.New("insert failed"))
			},
			errText: "exec insert comment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setup(mock)

			st := NewCommentStorage(mock, trmpgx.DefaultCtxGetter)
			got, err := st.CreateComment(context.Background(), tt.params)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.ErrorContains(t, err, tt.errText)
			default:
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCommentStorage_GetCommentsByPost(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 24, 12, 0, 0, 0, time.UTC)
	listQuery := regexp.QuoteMeta("SELECT id, post_id, parent_id, text, image, gif, created_at FROM comments WHERE post_id = $1 ORDER BY seq ASC")

	t.Run("insertion order", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		// created_at is not monotonic; seq decides the order
		mock.ExpectQuery(listQuery).
			WithArgs("p1").
			WillReturnRows(pgxmock.NewRows(commentRowColumns).
				AddRow("c1", "p1", (*string)(nil), "hi", "", "", now).
				AddRow("c2", "p1", strPtr("c1"), "reply", "", "", now.Add(-time.Second)))

		got, err := NewCommentStorage(mock, trmpgx.DefaultCtxGetter).GetCommentsByPost(context.Background(), "p1")
		require.NoError(t, err)
		require.Equal(t, []model.Comment{
			{ID: "c1", PostID: "p1", Text: "hi", CreatedAt: now},
			{ID: "c2", PostID: "p1", ParentID: strPtr("c1"), Text: "reply", CreatedAt: now.Add(-time.Second)},
		}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown post", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(listQuery).
			WithArgs("nonexistent-post").
			WillReturnRows(pgxmock.NewRows(commentRowColumns))

		got, err := NewCommentStorage(mock, trmpgx.DefaultCtxGetter).GetCommentsByPost(context.Background(), "nonexistent-post")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(listQuery).WithArgs("p1").WillReturnError(errors.New("boom"))

		got, err := NewCommentStorage(mock, trmpgx.DefaultCtxGetter).GetCommentsByPost(context.Background(), "p1")
		require.Nil(t, got)
		require.ErrorContains(t, err, "exec select comments")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row error", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(listQuery).
			WithArgs("p1").
			WillReturnRows(pgxmock.NewRows(commentRowColumns).
				AddRow("c1", "p1", (*string)(nil), "hi", "", "", now).
				RowError(0, errors.New("connection reset")))

		_, err = NewCommentStorage(mock, trmpgx.DefaultCtxGetter).GetCommentsByPost(context.Background(), "p1")
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS posts")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, Migrate(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}

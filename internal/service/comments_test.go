package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"minifeed/internal/adapter/out/storage"
	"minifeed/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func strPtr(s string) *string {
	return &s
}

func TestCommentService_CreateComment(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name       string
		req        CreateCommentRequest
		setup      func(ms *MockCommentStorage)
		wantErr    error
		wantReason string
		want       model.Comment
	}{
		{
			name:       "missing post id",
			req:        CreateCommentRequest{Text: "hi"},
			setup:      func(_ *MockCommentStorage) {},
			wantErr:    ErrInvalidRequest,
			wantReason: MsgPostIDRequired,
		},
		{
			name:       "missing post id wins over missing content",
			req:        CreateCommentRequest{},
			setup:      func(_ *MockCommentStorage) {},
			wantErr:    ErrInvalidRequest,
			wantReason: MsgPostIDRequired,
		},
		{
			name:       "no content",
			req:        CreateCommentRequest{PostID: "p"},
			setup:      func(_ *MockCommentStorage) {},
			wantErr:    ErrInvalidRequest,
			wantReason: MsgContentRequired,
		},
		{
			name:       "whitespace only text",
			req:        CreateCommentRequest{PostID: "p", Text: "   \n"},
			setup:      func(_ *MockCommentStorage) {},
			wantErr:    ErrInvalidRequest,
			wantReason: MsgContentRequired,
		},
		{
			name: "storage error",
			req:  CreateCommentRequest{PostID: "p", Text: "hi"},
			setup: func(ms *MockCommentStorage) {
				ms.EXPECT().
					CreateComment(gomock.Any(), gomock.Any()).
					Return(model.Comment{}, errors.New("db fail"))
			},
			wantErr: ErrInternalError,
		},
		{
			name: "gif only reply is normalized",
			req: CreateCommentRequest{
				PostID:         " p ",
				ParentID:       strPtr("c1"),
				GIF:            " https://media.example/cat.gif ",
				IdempotencyKey: " key-1 ",
			},
			setup: func(ms *MockCommentStorage) {
				ms.EXPECT().
					CreateComment(gomock.Any(), storage.CreateCommentParams{
						Comment: model.Comment{
							PostID:   "p",
							ParentID: strPtr("c1"),
							GIF:      "https://media.example/cat.gif",
						},
						IdempotencyKey: "key-1",
					}).
					Return(model.Comment{
						ID:        "c2",
						PostID:    "p",
						ParentID:  strPtr("c1"),
						GIF:       "https://media.example/cat.gif",
						CreatedAt: now,
					}, nil)
			},
			want: model.Comment{
				ID:        "c2",
				PostID:    "p",
				ParentID:  strPtr("c1"),
				GIF:       "https://media.example/cat.gif",
				CreatedAt: now,
			},
		},
		{
			name: "blank parent id is top level",
			req:  CreateCommentRequest{PostID: "p", ParentID: strPtr("  "), Image: "data:image/png;base64,AAAA"},
			setup: func(ms *MockCommentStorage) {
				ms.EXPECT().
					CreateComment(gomock.Any(), storage.CreateCommentParams{
						Comment: model.Comment{PostID: "p", Image: "data:image/png;base64,AAAA"},
					}).
					Return(model.Comment{ID: "c3", PostID: "p", Image: "data:image/png;base64,AAAA", CreatedAt: now}, nil)
			},
			want: model.Comment{ID: "c3", PostID: "p", Image: "data:image/png;base64,AAAA", CreatedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			ms := NewMockCommentStorage(ctrl)
			tt.setup(ms)

			svc := NewCommentService(ms, DefaultTreeCacheSize)
			got, err := svc.CreateComment(context.Background(), tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantReason != "" {
					var verr *ValidationError
					require.ErrorAs(t, err, &verr)
					require.Equal(t, tt.wantReason, verr.Reason)
				}
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCommentService_ListComments(t *testing.T) {
	t.Parallel()

	t.Run("post id required", func(t *testing.T) {
		t.Parallel()

		svc := NewCommentService(NewMockCommentStorage(gomock.NewController(t)), 0)
		_, err := svc.ListComments(context.Background(), " ")

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, MsgPostIDRequired, verr.Reason)
	})

	t.Run("unknown post yields empty list", func(t *testing.T) {
		t.Parallel()

		ms := NewMockCommentStorage(gomock.NewController(t))
		ms.EXPECT().GetCommentsByPost(gomock.Any(), "nonexistent-post").Return(nil, nil)

		got, err := NewCommentService(ms, 0).ListComments(context.Background(), "nonexistent-post")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		ms := NewMockCommentStorage(gomock.NewController(t))
		ms.EXPECT().GetCommentsByPost(gomock.Any(), "p").Return(nil, errors.New("db fail"))

		_, err := NewCommentService(ms, 0).ListComments(context.Background(), "p")
		require.ErrorIs(t, err, ErrInternalError)
		require.ErrorContains(t, err, "db fail")
	})
}

func TestCommentService_GetCommentTree(t *testing.T) {
	t.Parallel()

	comments := []model.Comment{
		{ID: "1", PostID: "p", Text: "hi"},
		{ID: "2", PostID: "p", ParentID: strPtr("1"), Text: "reply"},
		{ID: "3", PostID: "p", ParentID: strPtr("99"), Text: "orphan"},
	}

	t.Run("builds forest", func(t *testing.T) {
		t.Parallel()

		ms := NewMockCommentStorage(gomock.NewController(t))
		ms.EXPECT().GetCommentsByPost(gomock.Any(), "p").Return(comments, nil)

		tree, err := NewCommentService(ms, DefaultTreeCacheSize).GetCommentTree(context.Background(), "p")
		require.NoError(t, err)
		require.Equal(t, "p", tree.PostID)
		require.Equal(t, 3, tree.Count)
		require.Len(t, tree.Roots, 2)
		require.Equal(t, "1", tree.Roots[0].ID)
		require.Equal(t, "2", tree.Roots[0].Children[0].ID)
		require.Equal(t, "3", tree.Roots[1].ID)
	})

	t.Run("served from cache until a comment is created", func(t *testing.T) {
		t.Parallel()

		ms := NewMockCommentStorage(gomock.NewController(t))
		gomock.InOrder(
			ms.EXPECT().GetCommentsByPost(gomock.Any(), "p").Return(comments[:1], nil),
			ms.EXPECT().CreateComment(gomock.Any(), gomock.Any()).
				Return(comments[1], nil),
			ms.EXPECT().GetCommentsByPost(gomock.Any(), "p").Return(comments[:2], nil),
		)

		svc := NewCommentService(ms, DefaultTreeCacheSize)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			tree, err := svc.GetCommentTree(ctx, "p")
			require.NoError(t, err)
			require.Equal(t, 1, tree.Count)
		}

		_, err := svc.CreateComment(ctx, CreateCommentRequest{PostID: "p", ParentID: strPtr("1"), Text: "reply"})
		require.NoError(t, err)

		tree, err := svc.GetCommentTree(ctx, "p")
		require.NoError(t, err)
		require.Equal(t, 2, tree.Count)
	})

	t.Run("build racing with a create is not cached", func(t *testing.T) {
		t.Parallel()

		ms := NewMockCommentStorage(gomock.NewController(t))
		svc := NewCommentService(ms, DefaultTreeCacheSize)

		ms.EXPECT().GetCommentsByPost(gomock.Any(), "p").
			DoAndReturn(func(_ context.Context, postID string) ([]model.Comment, error) {
				// a create lands after the read but before the tree is stored
				svc.trees.invalidate(postID)
				return comments[:1], nil
			})
		ms.EXPECT().GetCommentsByPost(gomock.Any(), "p").Return(comments[:2], nil)

		first, err := svc.GetCommentTree(context.Background(), "p")
		require.NoError(t, err)
		require.Equal(t, 1, first.Count)

		second, err := svc.GetCommentTree(context.Background(), "p")
		require.NoError(t, err)
		require.Equal(t, 2, second.Count)
	})

	t.Run("caching disabled", func(t *testing.T) {
		t.Parallel()

		ms := NewMockCommentStorage(gomock.NewController(t))
		ms.EXPECT().GetCommentsByPost(gomock.Any(), "p").Return(comments, nil).Times(2)

		svc := NewCommentService(ms, 0)
		for i := 0; i < 2; i++ {
			_, err := svc.GetCommentTree(context.Background(), "p")
			require.NoError(t, err)
		}
	})

	t.Run("post id required", func(t *testing.T) {
		t.Parallel()

		svc := NewCommentService(NewMockCommentStorage(gomock.NewController(t)), DefaultTreeCacheSize)
		_, err := svc.GetCommentTree(context.Background(), "")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

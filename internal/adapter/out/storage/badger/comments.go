package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"minifeed/internal/adapter/out/storage"
	"minifeed/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type CommentStorage struct {
	db  *DB
	seq *badger.Sequence

	// writes are serialized so key order matches commit order
	mu sync.Mutex
}

func NewCommentStorage(db *DB) (*CommentStorage, error) {
	seq, err := db.GetSequence([]byte(commentSeqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("get comment sequence: %w", err)
	}
	return &CommentStorage{db: db, seq: seq}, nil
}

// Close returns unused sequence numbers. It must run before the DB is closed.
func (s *CommentStorage) Close() error {
	return s.seq.Release()
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
	if c.ParentID != nil {
		pid := *c.ParentID
		c.ParentID = &pid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out model.Comment
	err := s.db.update(ctx, func(txn *badger.Txn) error {
		if p.IdempotencyKey != "" {
			prev, found, err := commentByRef(txn, idemKey(p.IdempotencyKey))
			if err != nil {
				return err
			}
			if found {
				out = prev
				return nil
			}
		}

		if _, err := txn.Get(commentIDKey(c.ID)); err == nil {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateID, c.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get comment id: %w", err)
		}

		n, err := s.seq.Next()
		if err != nil {
			return fmt.Errorf("next comment sequence: %w", err)
		}
		key := commentKey(c.PostID, n)

		val, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal comment: %w", err)
		}
		if err := txn.Set(key, val); err != nil {
			return fmt.Errorf("set comment: %w", err)
		}
		if err := txn.Set(commentIDKey(c.ID), key); err != nil {
			return fmt.Errorf("set comment id: %w", err)
		}
		if p.IdempotencyKey != "" {
			if err := txn.Set(idemKey(p.IdempotencyKey), key); err != nil {
				return fmt.Errorf("set idempotency key: %w", err)
			}
		}

		out = c
		return nil
	})
	if err != nil {
		return model.Comment{}, err
	}
	return out, nil
}

// GetCommentsByPost returns the comments of postID in insertion order.
func (s *CommentStorage) GetCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	out := make([]model.Comment, 0)

	err := s.db.view(ctx, func(txn *badger.Txn) error {
		prefix := commentsOfPost(postID)
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Prefix:         prefix,
		})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c model.Comment
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &c)
			}); err != nil {
				return fmt.Errorf("decode comment %s: %w", it.Item().Key(), err)
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// commentByRef follows a key whose value is the key of a stored comment.
func commentByRef(txn *badger.Txn, ref []byte) (model.Comment, bool, error) {
	item, err := txn.Get(ref)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.Comment{}, false, nil
	}
	if err != nil {
		return model.Comment{}, false, fmt.Errorf("get %s: %w", ref, err)
	}

	key, err := item.ValueCopy(nil)
	if err != nil {
		return model.Comment{}, false, fmt.Errorf("read %s: %w", ref, err)
	}

	item, err = txn.Get(key)
	if err != nil {
		return model.Comment{}, false, fmt.Errorf("get comment %s: %w", key, err)
	}

	var c model.Comment
	if err := item.Value(func(v []byte) error {
		return json.Unmarshal(v, &c)
	}); err != nil {
		return model.Comment{}, false, fmt.Errorf("decode comment %s: %w", key, err)
	}
	return c, true, nil
}

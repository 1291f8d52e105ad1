package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"minifeed/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type PostStorage struct {
	db  *DB
	seq *badger.Sequence
	mu  sync.Mutex
}

func NewPostStorage(db *DB) (*PostStorage, error) {
	seq, err := db.GetSequence([]byte(postSeqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("get post sequence: %w", err)
	}
	return &PostStorage{db: db, seq: seq}, nil
}

func (s *PostStorage) Close() error {
	return s.seq.Release()
}

func (s *PostStorage) CreatePost(ctx context.Context, p model.Post) (model.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	val, err := json.Marshal(p)
	if err != nil {
		return model.Post{}, fmt.Errorf("marshal post: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.update(ctx, func(txn *badger.Txn) error {
		n, err := s.seq.Next()
		if err != nil {
			return fmt.Errorf("next post sequence: %w", err)
		}
		return txn.Set(postKey(n), val)
	})
	if err != nil {
		return model.Post{}, fmt.Errorf("store post: %w", err)
	}
	return p, nil
}

// GetPosts returns every post, newest first.
func (s *PostStorage) GetPosts(ctx context.Context) ([]model.Post, error) {
	out := make([]model.Post, 0)

	err := s.db.view(ctx, func(txn *badger.Txn) error {
		prefix := []byte(postPrefix)
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Reverse:        true,
			Prefix:         prefix,
		})
		defer it.Close()

		// reverse iteration starts at the last key not greater than the seek key
		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			var p model.Post
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &p)
			}); err != nil {
				return fmt.Errorf("decode post %s: %w", it.Item().Key(), err)
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

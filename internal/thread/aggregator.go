package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"minifeed/internal/model"
)

// ErrStale is returned by Initialize when another post was selected while the
// comments were being fetched. The fetched set is discarded.
var ErrStale = errors.New("post is no longer selected")

// CommentLister fetches the full comment set of a post.
type CommentLister interface {
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
}

type Option func(*Aggregator)

// WithCountObserver registers fn to receive the comment count after every change.
func WithCountObserver(fn func(postID string, count int)) Option {
	return func(a *Aggregator) {
		a.onCount = fn
	}
}

// WithRenderer registers fn to receive the rebuilt forest after every change.
// The forest is shared and must be treated as read-only.
func WithRenderer(fn func(postID string, forest []*model.CommentNode)) Option {
	return func(a *Aggregator) {
		a.onRender = fn
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// Aggregator keeps the working comment set of the currently viewed post. It is
// seeded by one full fetch and then grows with the canonical records returned
// by comment creation, without refetching.
//
// A post only becomes selected once its fetch succeeds. Until then the
// previous selection stays active and comments created for the loading post
// are buffered.
//
// Callbacks run outside the state lock but are serialized with each other, in
// change order. They may read the aggregator but must not call Initialize or
// AppendLocal.
type Aggregator struct {
	lister   CommentLister
	onCount  func(postID string, count int)
	onRender func(postID string, forest []*model.CommentNode)
	log      *slog.Logger

	notifyMu sync.Mutex

	mu       sync.RWMutex
	gen      uint64
	loaded   bool
	postID   string
	comments []model.Comment
	seen     map[string]struct{}
	forest   []*model.CommentNode
	stats    Stats

	// in-flight Initialize
	loading     string
	pending     []model.Comment
	pendingSeen map[string]struct{}
}

func NewAggregator(lister CommentLister, opts ...Option) *Aggregator {
	a := &Aggregator{
		lister: lister,
		seen:   make(map[string]struct{}),
		forest: []*model.CommentNode{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize selects postID and loads its comments with a single list call.
// Comments appended for postID while the fetch was in flight are kept. On
// failure the previous selection is left as it was.
func (a *Aggregator) Initialize(ctx context.Context, postID string) ([]model.Comment, error) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.loading = postID
	a.pending = nil
	a.pendingSeen = make(map[string]struct{})
	a.mu.Unlock()

	fetched, err := a.lister.ListComments(ctx, postID)

	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	if a.gen != gen {
		a.mu.Unlock()
		a.log.Debug("dropping stale comment fetch", "post_id", postID, "error", err)
		return nil, ErrStale
	}

	appended := a.pending
	a.loading, a.pending, a.pendingSeen = "", nil, nil
	if err != nil {
		a.mu.Unlock()
		return nil, fmt.Errorf("list comments for post %s: %w", postID, err)
	}

	a.loaded = true
	a.postID = postID
	a.comments = make([]model.Comment, 0, len(fetched)+len(appended))
	a.seen = make(map[string]struct{}, len(fetched)+len(appended))
	for _, c := range fetched {
		a.addLocked(c)
	}
	for _, c := range appended {
		a.addLocked(c)
	}
	a.rebuildLocked()
	out := append([]model.Comment(nil), a.comments...)
	count, forest := len(a.comments), a.forest
	a.mu.Unlock()

	a.notify(postID, count, forest)
	return out, nil
}

// AppendLocal merges a created comment into the working set. A comment for
// the post being loaded is buffered until its fetch completes. It returns
// false when the comment belongs to no selected or loading post, or was
// already merged.
func (a *Aggregator) AppendLocal(c model.Comment) bool {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	buffered := false
	if a.pendingSeen != nil && c.PostID == a.loading {
		if _, ok := a.pendingSeen[c.ID]; !ok {
			a.pendingSeen[c.ID] = struct{}{}
			a.pending = append(a.pending, c)
			buffered = true
		}
	}

	if !a.loaded || c.PostID != a.postID {
		current := a.postID
		a.mu.Unlock()
		if !buffered {
			a.log.Debug("dropping comment for unselected post",
				"comment_id", c.ID, "post_id", c.PostID, "selected_post_id", current)
		}
		return buffered
	}
	if !a.addLocked(c) {
		a.mu.Unlock()
		return buffered
	}
	a.rebuildLocked()
	postID, count, forest := a.postID, len(a.comments), a.forest
	a.mu.Unlock()

	a.notify(postID, count, forest)
	return true
}

func (a *Aggregator) addLocked(c model.Comment) bool {
	if _, ok := a.seen[c.ID]; ok {
		return false
	}
	a.seen[c.ID] = struct{}{}
	a.comments = append(a.comments, c)
	return true
}

func (a *Aggregator) rebuildLocked() {
	a.forest, a.stats = Build(a.comments)
	if !a.stats.Clean() {
		a.log.Warn("comment thread has unresolved references",
			"post_id", a.postID,
			"orphans", len(a.stats.Orphans),
			"self_references", len(a.stats.SelfReferences),
			"cycles", len(a.stats.Cycles),
			"duplicates", len(a.stats.Duplicates),
		)
	}
}

func (a *Aggregator) notify(postID string, count int, forest []*model.CommentNode) {
	if a.onCount != nil {
		a.onCount(postID, count)
	}
	if a.onRender != nil {
		a.onRender(postID, forest)
	}
}

// PostID returns the selected post, or "" before the first successful Initialize.
func (a *Aggregator) PostID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.postID
}

// Comments returns a copy of the working set in merge order.
func (a *Aggregator) Comments() []model.Comment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]model.Comment(nil), a.comments...)
}

func (a *Aggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.comments)
}

// Forest returns the current forest. It must be treated as read-only.
func (a *Aggregator) Forest() []*model.CommentNode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.forest
}

func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

package contents

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/nasermirzaei89/nexus/moderation"
	"github.com/nasermirzaei89/nexus/reactions"
	"github.com/samber/lo"
)

// Store keeps every post in memory. The store lock guards only the post index and order and is never held across
// repository calls or while waiting for a post lock. Each post has its own lock serializing all reads and mutations
// of its discussion, so posts never block each other. A post lock may be held while taking the store lock, never
// the other way around.
//
// With a repository configured every mutation runs on a copy of the post, is saved, and only then becomes visible.
type Store struct {
	mu      sync.RWMutex
	posts   map[string]*entry
	// order lists post ids oldest first.
	order   []string
	seq     int64
	// pending holds ids of posts being saved but not yet published.
	pending map[string]struct{}

	repo  Repository
	queue moderation.Queue
	now   func() time.Time
	newID func() string
}

var _ Service = (*Store)(nil)

type Option func(store *Store)

func WithRepository(repo Repository) Option {
	return func(store *Store) {
		store.repo = repo
	}
}

func WithModerationQueue(queue moderation.Queue) Option {
	return func(store *Store) {
		store.queue = queue
	}
}

func WithClock(now func() time.Time) Option {
	return func(store *Store) {
		store.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(store *Store) {
		store.newID = newID
	}
}

func NewStore(opts ...Option) *Store {
	store := &Store{
		posts:   make(map[string]*entry),
		order:   make([]string, 0),
		pending: make(map[string]struct{}),
		queue:   moderation.NewMemoryQueue(),
		now:     time.Now,
		newID:   discuss.NewID,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

type entry struct {
	mu        sync.Mutex
	id        string
	authorID  string
	media     []string
	createdAt time.Time
	seq       int64
	views     atomic.Int64
	state     *postState
	deleted   bool
}

// postState is the part of a post that mutations replace as a whole.
type postState struct {
	text   string
	likes  reactions.Likes
	thread *discuss.Thread
}

func (st *postState) clone() *postState {
	return &postState{
		text:   st.text,
		likes:  st.likes.Clone(),
		thread: st.thread.Clone(),
	}
}

func (e *entry) view(st *postState, viewerID string) *Post {
	return &Post{
		ID:            e.id,
		AuthorID:      e.authorID,
		CreatedAt:     e.createdAt,
		Text:          st.text,
		Media:         slices.Clone(e.media),
		LikeCount:     st.likes.Count(),
		LikedByViewer: st.likes.Has(viewerID),
		Views:         e.views.Load(),
		Counts:        st.thread.Counts(),
	}
}

func (e *entry) snapshot(st *postState) *Snapshot {
	return &Snapshot{
		ID:        e.id,
		AuthorID:  e.authorID,
		Text:      st.text,
		Media:     slices.Clone(e.media),
		CreatedAt: e.createdAt,
		Sequence:  e.seq,
		Views:     e.views.Load(),
		LikedBy:   st.likes.Users(),
		Records:   st.thread.Records(),
	}
}

func (store *Store) threadOptions() []discuss.Option {
	return []discuss.Option{discuss.WithClock(store.now), discuss.WithIDGenerator(store.newID)}
}

// Load replaces the in-memory posts with the ones stored in the repository.
func (store *Store) Load(ctx context.Context) error {
	if store.repo == nil {
		return nil
	}

	snapshots, err := store.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make(map[string]*entry, len(snapshots))
	order := make([]string, 0, len(snapshots))

	var seq int64

	for _, snapshot := range snapshots {
		thread, err := discuss.BuildThread(snapshot.ID, snapshot.AuthorID, snapshot.Records, store.threadOptions()...)
		if err != nil {
			return fmt.Errorf("failed to build thread of post %q: %w", snapshot.ID, err)
		}

		e := &entry{
			id:        snapshot.ID,
			authorID:  snapshot.AuthorID,
			media:     slices.Clone(snapshot.Media),
			createdAt: snapshot.CreatedAt,
			seq:       snapshot.Sequence,
			state: &postState{
				text:   snapshot.Text,
				likes:  reactions.NewLikes(snapshot.LikedBy...),
				thread: thread,
			},
		}
		e.views.Store(snapshot.Views)

		posts[e.id] = e
		order = append(order, e.id)
		seq = max(seq, e.seq)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.posts = posts
	store.order = order
	store.seq = seq

	return nil
}

func (store *Store) lookup(postID string) (*entry, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	e, ok := store.posts[postID]
	if !ok {
		return nil, discuss.NotFoundError{Kind: discuss.KindPost, ID: postID}
	}

	return e, nil
}

// read runs fn under the post lock.
func (store *Store) read(postID string, fn func(e *entry, st *postState) error) error {
	e, err := store.lookup(postID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return discuss.NotFoundError{Kind: discuss.KindPost, ID: postID}
	}

	return fn(e, e.state)
}

// mutate runs fn under the post lock and publishes its result only if fn and the save both succeed. fn must check
// everything before it writes, which discuss.Thread does, so without a repository it can work on the live state.
func (store *Store) mutate(ctx context.Context, postID string, fn func(e *entry, st *postState) error) error {
	e, err := store.lookup(postID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return discuss.NotFoundError{Kind: discuss.KindPost, ID: postID}
	}

	next := e.state
	if store.repo != nil {
		next = e.state.clone()
	}

	err = fn(e, next)
	if err != nil {
		return err
	}

	if store.repo != nil {
		err = store.repo.Save(ctx, e.snapshot(next))
		if err != nil {
			return fmt.Errorf("failed to save post: %w", err)
		}
	}

	e.state = next

	return nil
}

func (store *Store) CreatePost(ctx context.Context, req CreatePostRequest) (post *Post, err error) {
	defer func() { observe(ActionCreatePost, err) }()

	if req.AuthorID == "" {
		return nil, discuss.ValidationError{Field: "actor", Message: "must not be empty"}
	}

	if strings.TrimSpace(req.Text) == "" && len(req.Media) == 0 {
		return nil, discuss.ValidationError{Field: "text", Message: "post must have text or media"}
	}

	id := store.newID()

	e := &entry{
		id:        id,
		authorID:  req.AuthorID,
		media:     slices.Clone(req.Media),
		createdAt: store.now(),
		state: &postState{
			text:   req.Text,
			likes:  reactions.NewLikes(),
			thread: discuss.NewThread(id, req.AuthorID, store.threadOptions()...),
		},
	}

	err = store.reserve(e)
	if err != nil {
		return nil, err
	}

	if store.repo != nil {
		err = store.repo.Save(ctx, e.snapshot(e.state))
		if err != nil {
			store.release(e.id)

			return nil, fmt.Errorf("failed to save post: %w", err)
		}
	}

	store.publish(e)

	return e.view(e.state, req.AuthorID), nil
}

// reserve assigns the next sequence number to a new post and holds its id until the post is published or released.
func (store *Store) reserve(e *entry) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.posts[e.id]; exists {
		return fmt.Errorf("failed to create post: id %q already exists", e.id)
	}

	if _, exists := store.pending[e.id]; exists {
		return fmt.Errorf("failed to create post: id %q already exists", e.id)
	}

	store.pending[e.id] = struct{}{}
	store.seq++
	e.seq = store.seq

	return nil
}

func (store *Store) release(postID string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.pending, postID)
}

// publish makes a reserved post visible. Saves may finish out of order, so the post is inserted by sequence.
func (store *Store) publish(e *entry) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.pending, e.id)

	i, _ := slices.BinarySearchFunc(store.order, e.seq, func(id string, seq int64) int {
		return cmp.Compare(store.posts[id].seq, seq)
	})

	store.posts[e.id] = e
	store.order = slices.Insert(store.order, i, e.id)
}

func (store *Store) GetPost(_ context.Context, postID, viewerID string) (*Post, error) {
	var post *Post

	err := store.read(postID, func(e *entry, st *postState) error {
		post = e.view(st, viewerID)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// EditPost replaces the text of the post and nothing else.
func (store *Store) EditPost(ctx context.Context, postID, actorID, text string) (post *Post, err error) {
	defer func() { observe(ActionEditPost, err) }()

	err = store.mutate(ctx, postID, func(e *entry, st *postState) error {
		if e.authorID != actorID {
			return discuss.UnauthorizedError{ActorID: actorID, Action: "edit", Kind: discuss.KindPost, ID: postID}
		}

		if strings.TrimSpace(text) == "" && len(e.media) == 0 {
			return discuss.ValidationError{Field: "text", Message: "post must have text or media"}
		}

		st.text = text
		post = e.view(st, actorID)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to edit post: %w", err)
	}

	return post, nil
}

// DeletePost removes the post together with its whole discussion. The store lock is taken only after the post is
// gone, to drop it from the index.
func (store *Store) DeletePost(ctx context.Context, postID, actorID string) (err error) {
	defer func() { observe(ActionDeletePost, err) }()

	e, err := store.lookup(postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return fmt.Errorf("failed to delete post: %w", discuss.NotFoundError{Kind: discuss.KindPost, ID: postID})
	}

	if e.authorID != actorID {
		return fmt.Errorf(
			"failed to delete post: %w",
			discuss.UnauthorizedError{ActorID: actorID, Action: "delete", Kind: discuss.KindPost, ID: postID},
		)
	}

	if store.repo != nil {
		err = store.repo.Delete(ctx, postID)
		if err != nil {
			return fmt.Errorf("failed to delete post from repository: %w", err)
		}
	}

	e.deleted = true

	store.mu.Lock()
	delete(store.posts, postID)
	store.order = slices.DeleteFunc(store.order, func(id string) bool { return id == postID })
	store.mu.Unlock()

	return nil
}

func (store *Store) ToggleLikePost(ctx context.Context, postID, actorID string) (post *Post, err error) {
	defer func() { observe(ActionLikePost, err) }()

	err = store.mutate(ctx, postID, func(e *entry, st *postState) error {
		if actorID == "" {
			return discuss.ValidationError{Field: "actor", Message: "must not be empty"}
		}

		st.likes.Toggle(actorID)
		post = e.view(st, actorID)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle post like: %w", err)
	}

	return post, nil
}

// RecordView counts one view of the post. The counter is atomic and never takes the post lock.
func (store *Store) RecordView(ctx context.Context, postID string) (views int64, err error) {
	defer func() { observe(ActionViewPost, err) }()

	e, err := store.lookup(postID)
	if err != nil {
		return 0, fmt.Errorf("failed to record view: %w", err)
	}

	if store.repo != nil {
		err = store.repo.IncrementViews(ctx, postID)
		if err != nil {
			return 0, fmt.Errorf("failed to store view: %w", err)
		}
	}

	return e.views.Add(1), nil
}

// ListPosts returns posts newest first, in insertion order. The list is never reordered by activity.
func (store *Store) ListPosts(_ context.Context, viewerID string, scope Scope) ([]*Post, error) {
	store.mu.RLock()

	entries := make([]*entry, 0, len(store.order))
	for i := len(store.order) - 1; i >= 0; i-- {
		entries = append(entries, store.posts[store.order[i]])
	}

	store.mu.RUnlock()

	entries = lo.Filter(entries, func(e *entry, _ int) bool {
		return scope.includes(e.authorID, viewerID)
	})

	posts := make([]*Post, 0, len(entries))

	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			posts = append(posts, e.view(e.state, viewerID))
		}
		e.mu.Unlock()
	}

	return posts, nil
}

package contents_test

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nasermirzaei89/nexus/contents"
	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/nasermirzaei89/nexus/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	var (
		mu   sync.Mutex
		next int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		next++

		return fmt.Sprintf("id%d", next)
	}
}

func steppingClock() func() time.Time {
	var (
		mu  sync.Mutex
		now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	)

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		now = now.Add(time.Minute)

		return now
	}
}

func newTestStore(t *testing.T, opts ...contents.Option) *contents.Store {
	t.Helper()

	opts = append([]contents.Option{
		contents.WithIDGenerator(sequentialIDs()),
		contents.WithClock(steppingClock()),
	}, opts...)

	return contents.NewStore(opts...)
}

func createPost(t *testing.T, store *contents.Store, authorID, text string) *contents.Post {
	t.Helper()

	post, err := store.CreatePost(context.Background(), contents.CreatePostRequest{AuthorID: authorID, Text: text})
	require.NoError(t, err)

	return post
}

func TestStore_CreatePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name    string
		req     contents.CreatePostRequest
		wantErr bool
	}{
		{name: "text only", req: contents.CreatePostRequest{AuthorID: "alice", Text: "hello"}},
		{name: "media only", req: contents.CreatePostRequest{AuthorID: "alice", Media: []string{"s3://bucket/cat.png"}}},
		{name: "blank without media", req: contents.CreatePostRequest{AuthorID: "alice", Text: "  \n"}, wantErr: true},
		{name: "missing author", req: contents.CreatePostRequest{Text: "hello"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newTestStore(t)

			post, err := store.CreatePost(ctx, tt.req)
			if tt.wantErr {
				require.ErrorAs(t, err, &discuss.ValidationError{})

				posts, err := store.ListPosts(ctx, "", contents.ScopeAll)
				require.NoError(t, err)
				assert.Empty(t, posts)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.req.AuthorID, post.AuthorID)
			assert.Equal(t, tt.req.Text, post.Text)
			assert.Equal(t, tt.req.Media, post.Media)
			assert.Zero(t, post.LikeCount)
			assert.Equal(t, discuss.Counts{}, post.Counts)
		})
	}
}

func TestStore_ListPostsScopes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	p1 := createPost(t, store, "alice", "first")
	p2 := createPost(t, store, "bob", "second")
	p3 := createPost(t, store, "alice", "third")

	ids := func(posts []*contents.Post) []string {
		res := make([]string, 0, len(posts))
		for _, post := range posts {
			res = append(res, post.ID)
		}

		return res
	}

	all, err := store.ListPosts(ctx, "alice", contents.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p2.ID, p1.ID}, ids(all))

	own, err := store.ListPosts(ctx, "alice", contents.ScopeOwn)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p1.ID}, ids(own))

	others, err := store.ListPosts(ctx, "alice", contents.ScopeOthers)
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID}, ids(others))

	// likes never reorder the feed
	_, err = store.ToggleLikePost(ctx, p1.ID, "bob")
	require.NoError(t, err)

	all, err = store.ListPosts(ctx, "bob", contents.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p2.ID, p1.ID}, ids(all))
	assert.True(t, all[2].LikedByViewer)
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	scope, err := contents.ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, contents.ScopeAll, scope)

	scope, err = contents.ParseScope("own")
	require.NoError(t, err)
	assert.Equal(t, contents.ScopeOwn, scope)

	_, err = contents.ParseScope("friends")
	require.ErrorAs(t, err, &discuss.ValidationError{})
}

func TestStore_EditAndDeletePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	post := createPost(t, store, "alice", "draft")

	_, err := store.EditPost(ctx, post.ID, "bob", "hijacked")
	require.ErrorAs(t, err, &discuss.UnauthorizedError{})

	_, err = store.EditPost(ctx, post.ID, "alice", " ")
	require.ErrorAs(t, err, &discuss.ValidationError{})

	edited, err := store.EditPost(ctx, post.ID, "alice", "final")
	require.NoError(t, err)
	assert.Equal(t, "final", edited.Text)
	assert.Equal(t, post.CreatedAt, edited.CreatedAt)

	err = store.DeletePost(ctx, post.ID, "bob")
	require.ErrorAs(t, err, &discuss.UnauthorizedError{})

	err = store.DeletePost(ctx, post.ID, "alice")
	require.NoError(t, err)

	_, err = store.GetPost(ctx, post.ID, "alice")
	require.ErrorAs(t, err, &discuss.NotFoundError{})

	_, err = store.ListComments(ctx, post.ID, "alice", discuss.SortNewest)
	require.ErrorAs(t, err, &discuss.NotFoundError{})

	err = store.DeletePost(ctx, post.ID, "alice")
	require.ErrorAs(t, err, &discuss.NotFoundError{})
}

func TestStore_ToggleLikePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	post := createPost(t, store, "alice", "hello")

	liked, err := store.ToggleLikePost(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)
	assert.True(t, liked.LikedByViewer)

	unliked, err := store.ToggleLikePost(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikeCount)
	assert.False(t, unliked.LikedByViewer)

	_, err = store.ToggleLikePost(ctx, post.ID, "")
	require.ErrorAs(t, err, &discuss.ValidationError{})

	_, err = store.ToggleLikePost(ctx, "missing", "bob")
	require.ErrorAs(t, err, &discuss.NotFoundError{})
}

func TestStore_RecordViewConcurrently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	post := createPost(t, store, "alice", "hello")

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := store.RecordView(ctx, post.ID)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	got, err := store.GetPost(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Views)
}

type memoryRepository struct {
	mu        sync.Mutex
	snapshots map[string]*contents.Snapshot
	failSave  error
	saveDelay time.Duration
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{snapshots: make(map[string]*contents.Snapshot)}
}

func (repo *memoryRepository) Save(_ context.Context, snapshot *contents.Snapshot) error {
	time.Sleep(repo.saveDelay)

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.failSave != nil {
		return repo.failSave
	}

	if stored, ok := repo.snapshots[snapshot.ID]; ok {
		snapshot.Views = stored.Views
	}

	repo.snapshots[snapshot.ID] = snapshot

	return nil
}

func (repo *memoryRepository) Delete(_ context.Context, postID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	delete(repo.snapshots, postID)

	return nil
}

func (repo *memoryRepository) IncrementViews(_ context.Context, postID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.snapshots[postID].Views++

	return nil
}

func (repo *memoryRepository) List(_ context.Context) ([]*contents.Snapshot, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	res := make([]*contents.Snapshot, 0, len(repo.snapshots))
	for _, snapshot := range repo.snapshots {
		res = append(res, snapshot)
	}

	slices.SortFunc(res, func(a, b *contents.Snapshot) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})

	return res, nil
}

// blockingRepository holds every save matching block until release is closed.
type blockingRepository struct {
	*memoryRepository

	block   func(snapshot *contents.Snapshot) bool
	entered chan struct{}
	release chan struct{}
}

func newBlockingRepository(block func(snapshot *contents.Snapshot) bool) *blockingRepository {
	return &blockingRepository{
		memoryRepository: newMemoryRepository(),
		block:            block,
		entered:          make(chan struct{}, 1),
		release:          make(chan struct{}),
	}
}

func (repo *blockingRepository) Save(ctx context.Context, snapshot *contents.Snapshot) error {
	if repo.block(snapshot) {
		select {
		case repo.entered <- struct{}{}:
		default:
		}

		<-repo.release
	}

	return repo.memoryRepository.Save(ctx, snapshot)
}

func requireDone(t *testing.T, done <-chan struct{}, msg string) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.FailNow(t, msg)
	}
}

func TestStore_SlowSaveDoesNotBlockOtherPosts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var slowPostID atomic.Value

	slowPostID.Store("")

	repo := newBlockingRepository(func(snapshot *contents.Snapshot) bool {
		return snapshot.ID == slowPostID.Load().(string)
	})
	store := newTestStore(t, contents.WithRepository(repo))

	slow := createPost(t, store, "alice", "busy")
	other := createPost(t, store, "bob", "quiet")

	slowPostID.Store(slow.ID)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, err := store.AddComment(ctx, slow.ID, "carol", "first")
		assert.NoError(t, err)
	}()

	<-repo.entered

	go func() {
		defer wg.Done()

		err := store.DeletePost(ctx, slow.ID, "alice")
		assert.NoError(t, err)
	}()

	// Give DeletePost time to queue on the busy post.
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})

	go func() {
		defer close(done)

		_, err := store.AddComment(ctx, other.ID, "carol", "still here")
		assert.NoError(t, err)

		_, err = store.GetPost(ctx, other.ID, "carol")
		assert.NoError(t, err)
	}()

	requireDone(t, done, "mutation of another post waited for the busy post")

	close(repo.release)
	wg.Wait()

	_, err := store.GetPost(ctx, slow.ID, "alice")
	require.ErrorAs(t, err, &discuss.NotFoundError{})

	posts, err := store.ListPosts(ctx, "", contents.ScopeAll)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, other.ID, posts[0].ID)
	assert.Equal(t, discuss.Counts{Comments: 1, Total: 1}, posts[0].Counts)
}

func TestStore_CreatePostSaveDoesNotBlockOtherPosts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newBlockingRepository(func(snapshot *contents.Snapshot) bool {
		return snapshot.Text == "slow"
	})
	store := newTestStore(t, contents.WithRepository(repo))

	existing := createPost(t, store, "bob", "existing")

	created := make(chan *contents.Post, 1)

	go func() {
		post, err := store.CreatePost(ctx, contents.CreatePostRequest{AuthorID: "alice", Text: "slow"})
		assert.NoError(t, err)

		created <- post
	}()

	<-repo.entered

	done := make(chan struct{})

	go func() {
		defer close(done)

		post, err := store.ToggleLikePost(ctx, existing.ID, "carol")
		if assert.NoError(t, err) {
			assert.Equal(t, 1, post.LikeCount)
		}
	}()

	requireDone(t, done, "like on an existing post waited for a new post's save")

	posts, err := store.ListPosts(ctx, "", contents.ScopeAll)
	require.NoError(t, err)
	require.Len(t, posts, 1, "a post is listed only once saved")

	later := createPost(t, store, "dave", "later")

	close(repo.release)

	slow := <-created
	require.NotNil(t, slow)

	posts, err = store.ListPosts(ctx, "", contents.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{later.ID, slow.ID, existing.ID}, postIDs(posts))
}

func postIDs(posts []*contents.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	return ids
}

func TestStore_SaveFailureLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemoryRepository()
	store := newTestStore(t, contents.WithRepository(repo))

	post := createPost(t, store, "alice", "hello")

	res, err := store.AddComment(ctx, post.ID, "bob", "nice")
	require.NoError(t, err)

	repo.failSave = errors.New("disk full")

	_, err = store.AddReply(ctx, post.ID, res.Comment.ID, "", "carol", "agreed")
	require.Error(t, err)

	_, err = store.PinComment(ctx, post.ID, res.Comment.ID, "alice")
	require.Error(t, err)

	_, err = store.ToggleLikePost(ctx, post.ID, "bob")
	require.Error(t, err)

	listing, err := store.ListComments(ctx, post.ID, "bob", discuss.SortNewest)
	require.NoError(t, err)
	require.Len(t, listing.Comments, 1)
	assert.Empty(t, listing.Comments[0].Replies)
	assert.False(t, listing.Comments[0].Pinned)
	assert.Equal(t, discuss.Counts{Comments: 1, Total: 1}, listing.Counts)

	got, err := store.GetPost(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Zero(t, got.LikeCount)
}

func TestStore_LoadRestoresPosts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemoryRepository()
	store := newTestStore(t, contents.WithRepository(repo))

	first := createPost(t, store, "alice", "first")
	second := createPost(t, store, "bob", "second")

	c, err := store.AddComment(ctx, first.ID, "bob", "comment")
	require.NoError(t, err)

	r, err := store.AddReply(ctx, first.ID, c.Comment.ID, "", "alice", "reply")
	require.NoError(t, err)

	_, err = store.AddReply(ctx, first.ID, c.Comment.ID, r.Reply.ID, "bob", "nested")
	require.NoError(t, err)

	_, err = store.PinComment(ctx, first.ID, c.Comment.ID, "alice")
	require.NoError(t, err)

	_, err = store.ToggleLikePost(ctx, second.ID, "alice")
	require.NoError(t, err)

	_, err = store.RecordView(ctx, second.ID)
	require.NoError(t, err)

	restored := newTestStore(t, contents.WithRepository(repo))
	require.NoError(t, restored.Load(ctx))

	posts, err := restored.ListPosts(ctx, "alice", contents.ScopeAll)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, 1, posts[0].LikeCount)
	assert.True(t, posts[0].LikedByViewer)
	assert.Equal(t, int64(1), posts[0].Views)
	assert.Equal(t, discuss.Counts{Comments: 1, Total: 3}, posts[1].Counts)

	listing, err := restored.ListComments(ctx, first.ID, "bob", discuss.SortNewest)
	require.NoError(t, err)
	require.Len(t, listing.Comments, 1)
	assert.True(t, listing.Comments[0].Pinned)
	assert.Equal(t, 2, discuss.TotalReplyCount(listing.Comments[0]))

	// new posts continue the stored sequence
	third, err := restored.CreatePost(ctx, contents.CreatePostRequest{AuthorID: "carol", Text: "third"})
	require.NoError(t, err)

	posts, err = restored.ListPosts(ctx, "", contents.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, third.ID, posts[0].ID)
}

func TestStore_ReportComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue := moderation.NewMemoryQueue()
	store := newTestStore(t, contents.WithModerationQueue(queue))

	post := createPost(t, store, "alice", "hello")

	res, err := store.AddComment(ctx, post.ID, "bob", "rude words")
	require.NoError(t, err)

	before, err := store.ListComments(ctx, post.ID, "carol", discuss.SortNewest)
	require.NoError(t, err)

	report, err := store.ReportComment(ctx, post.ID, res.Comment.ID, "carol", " spam ")
	require.NoError(t, err)
	assert.Equal(t, "spam", report.Reason)
	assert.Equal(t, []moderation.Report{*report}, queue.Reports())

	after, err := store.ListComments(ctx, post.ID, "carol", discuss.SortNewest)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = store.ReportComment(ctx, post.ID, "missing", "carol", "spam")
	require.ErrorAs(t, err, &discuss.NotFoundError{})

	_, err = store.ReportComment(ctx, post.ID, res.Comment.ID, "", "spam")
	require.ErrorAs(t, err, &discuss.ValidationError{})

	assert.Len(t, queue.Reports(), 1)
}

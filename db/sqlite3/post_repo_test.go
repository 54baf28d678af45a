package sqlite3_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/nexus/contents"
	"github.com/nasermirzaei89/nexus/db/sqlite3"
	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	err = sqlite3.MigrateUp(ctx, db)
	require.NoError(t, err)

	return db
}

func fixtureSnapshot() *contents.Snapshot {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	return &contents.Snapshot{
		ID:        "p1",
		AuthorID:  "alice",
		Text:      "hello",
		Media:     []string{"img://1", "img://2"},
		CreatedAt: at,
		Sequence:  1,
		LikedBy:   []string{"bob", "carol"},
		Records: []discuss.Record{
			{ID: "c1", Kind: discuss.KindComment, AuthorID: "bob", Text: "C1", CreatedAt: at, Pinned: true},
			{ID: "r1", Kind: discuss.KindReply, ParentID: "c1", AuthorID: "alice", Text: "R1", CreatedAt: at, LikedBy: []string{"bob"}},
			{ID: "r2", Kind: discuss.KindReply, ParentID: "r1", AuthorID: "bob", Text: "R2", CreatedAt: at},
			{ID: "c2", Kind: discuss.KindComment, AuthorID: "carol", Text: "C2", CreatedAt: at, LikedBy: []string{"alice"}},
		},
	}
}

func TestPostRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := sqlite3.NewPostRepository(newTestDB(t))

	want := fixtureSnapshot()

	err := repo.Save(ctx, want)
	require.NoError(t, err)

	snapshots, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	got := snapshots[0]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.AuthorID, got.AuthorID)
	assert.Equal(t, want.Text, got.Text)
	assert.Equal(t, want.Media, got.Media)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.LikedBy, got.LikedBy)
	require.Len(t, got.Records, len(want.Records))

	for i := range want.Records {
		assert.Equal(t, want.Records[i].ID, got.Records[i].ID)
		assert.Equal(t, want.Records[i].Kind, got.Records[i].Kind)
		assert.Equal(t, want.Records[i].ParentID, got.Records[i].ParentID)
		assert.Equal(t, want.Records[i].Pinned, got.Records[i].Pinned)
		assert.Equal(t, want.Records[i].LikedBy, got.Records[i].LikedBy)
	}

	_, err = discuss.BuildThread(got.ID, got.AuthorID, got.Records)
	require.NoError(t, err)
}

func TestPostRepository_SaveReplacesDiscussion(t *testing.T) {
	ctx := context.Background()
	repo := sqlite3.NewPostRepository(newTestDB(t))

	snapshot := fixtureSnapshot()
	require.NoError(t, repo.Save(ctx, snapshot))

	require.NoError(t, repo.IncrementViews(ctx, snapshot.ID))
	require.NoError(t, repo.IncrementViews(ctx, snapshot.ID))

	snapshot.Text = "edited"
	snapshot.LikedBy = nil
	snapshot.Records = snapshot.Records[3:]
	require.NoError(t, repo.Save(ctx, snapshot))

	snapshots, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "edited", snapshots[0].Text)
	assert.Empty(t, snapshots[0].LikedBy)
	assert.Equal(t, int64(2), snapshots[0].Views)
	require.Len(t, snapshots[0].Records, 1)
	assert.Equal(t, "c2", snapshots[0].Records[0].ID)
}

func TestPostRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := sqlite3.NewPostRepository(newTestDB(t))

	first := fixtureSnapshot()
	require.NoError(t, repo.Save(ctx, first))

	second := &contents.Snapshot{ID: "p2", AuthorID: "bob", Text: "second", CreatedAt: time.Now(), Sequence: 2}
	require.NoError(t, repo.Save(ctx, second))

	require.NoError(t, repo.Delete(ctx, first.ID))

	snapshots, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "p2", snapshots[0].ID)
	assert.Empty(t, snapshots[0].Records)
}

func TestPostRepository_BackingStore(t *testing.T) {
	ctx := context.Background()
	repo := sqlite3.NewPostRepository(newTestDB(t))

	store := contents.NewStore(contents.WithRepository(repo))

	post, err := store.CreatePost(ctx, contents.CreatePostRequest{AuthorID: "alice", Text: "hello"})
	require.NoError(t, err)

	comment, err := store.AddComment(ctx, post.ID, "bob", "first")
	require.NoError(t, err)

	reply, err := store.AddReply(ctx, post.ID, comment.Comment.ID, "", "alice", "thanks")
	require.NoError(t, err)

	_, err = store.AddReply(ctx, post.ID, comment.Comment.ID, reply.Reply.ID, "bob", "np")
	require.NoError(t, err)

	_, err = store.ToggleLikeReply(ctx, post.ID, comment.Comment.ID, reply.Reply.ID, "bob")
	require.NoError(t, err)

	_, err = store.RecordView(ctx, post.ID)
	require.NoError(t, err)

	restored := contents.NewStore(contents.WithRepository(repo))
	require.NoError(t, restored.Load(ctx))

	got, err := restored.GetPost(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, discuss.Counts{Comments: 1, Total: 3}, got.Counts)

	listing, err := restored.ListComments(ctx, post.ID, "bob", discuss.SortNewest)
	require.NoError(t, err)
	require.Len(t, listing.Comments, 1)
	require.Len(t, listing.Comments[0].Replies, 1)
	assert.Equal(t, 1, listing.Comments[0].Replies[0].LikeCount)
	assert.True(t, listing.Comments[0].Replies[0].LikedByViewer)

	_, err = restored.DeleteReply(ctx, post.ID, comment.Comment.ID, reply.Reply.ID, "alice")
	require.NoError(t, err)

	snapshots, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0].Records, 1)
}

func TestMigrateDown(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	err := sqlite3.MigrateDown(ctx, db)
	require.NoError(t, err)

	_, err = sqlite3.NewPostRepository(db).List(ctx)
	require.Error(t, err)
}

package discuss_test

import (
	"testing"
	"time"

	"github.com/nasermirzaei89/nexus/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildThread_RoundTrip(t *testing.T) {
	t.Parallel()

	thread := newTestThread(t, "owner")

	c1, err := thread.AddComment("alice", "one")
	require.NoError(t, err)

	c2, err := thread.AddComment("bob", "two")
	require.NoError(t, err)

	r1, err := thread.AddReply(c1.ID, "", "carol", "r1")
	require.NoError(t, err)

	_, err = thread.AddReply(c1.ID, r1.ID, "dave", "r1.1")
	require.NoError(t, err)

	_, err = thread.AddReply(c1.ID, "", "erin", "r2")
	require.NoError(t, err)

	_, err = thread.ToggleReplyLike(c1.ID, r1.ID, "bob")
	require.NoError(t, err)

	_, err = thread.PinComment(c2.ID, "owner")
	require.NoError(t, err)

	records := thread.Records()
	require.Len(t, records, 5)
	assert.Equal(t, c1.ID, records[0].ID)
	assert.Equal(t, r1.ID, records[1].ID)
	assert.Equal(t, c2.ID, records[4].ID)

	rebuilt, err := discuss.BuildThread("p1", "owner", records)
	require.NoError(t, err)

	assert.Equal(t, thread.Comments("bob"), rebuilt.Comments("bob"))
	assert.Equal(t, thread.Counts(), rebuilt.Counts())
}

func TestBuildThread_RejectsCorruptRecords(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name    string
		records []discuss.Record
	}{
		{
			name: "duplicate id",
			records: []discuss.Record{
				{ID: "c1", Kind: discuss.KindComment, CreatedAt: now},
				{ID: "c1", Kind: discuss.KindComment, CreatedAt: now},
			},
		},
		{
			name: "reply before its parent",
			records: []discuss.Record{
				{ID: "r1", Kind: discuss.KindReply, ParentID: "c1", CreatedAt: now},
				{ID: "c1", Kind: discuss.KindComment, CreatedAt: now},
			},
		},
		{
			name: "reply as its own parent",
			records: []discuss.Record{
				{ID: "c1", Kind: discuss.KindComment, CreatedAt: now},
				{ID: "r1", Kind: discuss.KindReply, ParentID: "r1", CreatedAt: now},
			},
		},
		{
			name: "two pinned comments",
			records: []discuss.Record{
				{ID: "c1", Kind: discuss.KindComment, Pinned: true, CreatedAt: now},
				{ID: "c2", Kind: discuss.KindComment, Pinned: true, CreatedAt: now},
			},
		},
		{
			name: "comment with parent",
			records: []discuss.Record{
				{ID: "c1", Kind: discuss.KindComment, CreatedAt: now},
				{ID: "c2", Kind: discuss.KindComment, ParentID: "c1", CreatedAt: now},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := discuss.BuildThread("p1", "owner", tt.records)
			require.ErrorAs(t, err, &discuss.CorruptRecordError{})
		})
	}
}

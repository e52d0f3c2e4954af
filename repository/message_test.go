package repository

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

func TestMessageRepo_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	alice := f.profile("alice")
	server := f.server(alice)
	member := f.member(server, alice, models.RoleAdmin)
	channel := f.channel(server, "general")

	fileURL := "/uploads/1-cat.png"
	msg := &models.Message{Content: "hello", FileURL: &fileURL, MemberID: member.ID, ChannelID: channel.ID}
	require.NoError(t, f.messages.Create(f.ctx, msg))
	require.NotEmpty(t, msg.ID)

	got, err := f.messages.GetByID(f.ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	require.NotNil(t, got.FileURL)
	assert.Equal(t, fileURL, *got.FileURL)
	assert.False(t, got.Deleted)
	assert.True(t, msg.CreatedAt.Equal(got.CreatedAt))

	require.NotNil(t, got.Member)
	assert.Equal(t, member.ID, got.Member.ID)
	assert.Equal(t, models.RoleAdmin, got.Member.Role)
	require.NotNil(t, got.Member.Profile)
	assert.Equal(t, "alice", got.Member.Profile.Name)

	_, err = f.messages.GetByID(f.ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMessageRepo_ListByChannel_Pagination(t *testing.T) {
	f := newFixture(t)
	alice := f.profile("alice")
	server := f.server(alice)
	member := f.member(server, alice, models.RoleAdmin)
	channel := f.channel(server, "general")
	other := f.channel(server, "other")

	var ids []string
	for i := 0; i < 25; i++ {
		msg := &models.Message{Content: fmt.Sprintf("m%02d", i), MemberID: member.ID, ChannelID: channel.ID}
		require.NoError(t, f.messages.Create(f.ctx, msg))
		ids = append(ids, msg.ID)
	}
	require.NoError(t, f.messages.Create(f.ctx, &models.Message{Content: "elsewhere", MemberID: member.ID, ChannelID: other.ID}))

	const batch = models.MessagesBatch

	// First page: newest first, plus the lookahead row.
	rows, err := f.messages.ListByChannel(f.ctx, channel.ID, "", batch+1)
	require.NoError(t, err)
	require.Len(t, rows, batch+1)
	assert.Equal(t, "m24", rows[0].Content)
	assert.Equal(t, "m14", rows[batch].Content)

	page := models.NewPage(rows, batch, func(m models.Message) string { return m.ID })
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, ids[14], *page.NextCursor)

	// Second page starts at the cursor row.
	rows, err = f.messages.ListByChannel(f.ctx, channel.ID, *page.NextCursor, batch+1)
	require.NoError(t, err)
	require.Len(t, rows, batch+1)
	assert.Equal(t, "m14", rows[0].Content)

	page = models.NewPage(rows, batch, func(m models.Message) string { return m.ID })
	require.NotNil(t, page.NextCursor)

	// Last page has no lookahead.
	rows, err = f.messages.ListByChannel(f.ctx, channel.ID, *page.NextCursor, batch+1)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "m04", rows[0].Content)
	assert.Equal(t, "m00", rows[4].Content)

	page = models.NewPage(rows, batch, func(m models.Message) string { return m.ID })
	assert.Nil(t, page.NextCursor)
}

// walkChannel follows cursors from the first page to the last and returns
// the contents in the order they were served.
func walkChannel(t *testing.T, f *fixture, channelID string, beforePage func(cursor string)) []string {
	t.Helper()

	var seen []string
	cursor := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, 20, "pagination does not terminate")
		if cursor != "" && beforePage != nil {
			beforePage(cursor)
		}

		rows, err := f.messages.ListByChannel(f.ctx, channelID, cursor, models.MessagesBatch+1)
		require.NoError(t, err)
		page := models.NewPage(rows, models.MessagesBatch, func(m models.Message) string { return m.ID })
		for _, m := range page.Items {
			seen = append(seen, m.Content)
		}
		if page.NextCursor == nil {
			return seen
		}
		cursor = *page.NextCursor
	}
}

func TestMessageRepo_ListByChannel_SameTimestamp(t *testing.T) {
	f := newFixture(t)
	alice := f.profile("alice")
	server := f.server(alice)
	member := f.member(server, alice, models.RoleAdmin)
	channel := f.channel(server, "general")

	var msgs []*models.Message
	for i := 0; i < 27; i++ {
		msg := &models.Message{Content: fmt.Sprintf("m%02d", i), MemberID: member.ID, ChannelID: channel.ID}
		require.NoError(t, f.messages.Create(f.ctx, msg))
		msgs = append(msgs, msg)
	}

	// m05..m20 share one timestamp, so page boundaries fall inside the
	// group and only the id orders it.
	tied := msgs[5].CreatedAt
	for _, m := range msgs[5:21] {
		_, err := f.db.ExecContext(f.ctx, f.db.Rebind(`UPDATE messages SET created_at = ? WHERE id = ?`), tied, m.ID)
		require.NoError(t, err)
		m.CreatedAt = tied
	}

	expected := make([]*models.Message, len(msgs))
	copy(expected, msgs)
	sort.Slice(expected, func(i, j int) bool {
		a, b := expected[i], expected[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	want := make([]string, len(expected))
	for i, m := range expected {
		want[i] = m.Content
	}

	got := walkChannel(t, f, channel.ID, nil)
	assert.Equal(t, want, got)
}

func TestMessageRepo_ListByChannel_DeletedCursorRow(t *testing.T) {
	f := newFixture(t)
	alice := f.profile("alice")
	server := f.server(alice)
	member := f.member(server, alice, models.RoleAdmin)
	channel := f.channel(server, "general")

	for i := 0; i < 25; i++ {
		msg := &models.Message{Content: fmt.Sprintf("m%02d", i), MemberID: member.ID, ChannelID: channel.ID}
		require.NoError(t, f.messages.Create(f.ctx, msg))
	}

	// Every cursor row is deleted between the two requests.
	var deleted []string
	got := walkChannel(t, f, channel.ID, func(cursor string) {
		m, err := f.messages.GetByID(f.ctx, cursor)
		require.NoError(t, err)
		deleted = append(deleted, m.Content)
		require.NoError(t, f.messages.SoftDelete(f.ctx, cursor))
	})

	assert.Equal(t, []string{"m14", "m03"}, deleted)

	var want []string
	for i := 24; i >= 0; i-- {
		if c := fmt.Sprintf("m%02d", i); c != "m14" && c != "m03" {
			want = append(want, c)
		}
	}
	assert.Equal(t, want, got, "the walk resumes after a deleted cursor without gaps or repeats")
}

func TestMessageRepo_ListByChannel_UnknownCursor(t *testing.T) {
	f := newFixture(t)
	alice := f.profile("alice")
	server := f.server(alice)
	f.member(server, alice, models.RoleAdmin)
	channel := f.channel(server, "general")

	_, err := f.messages.ListByChannel(f.ctx, channel.ID, "nope", 11)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMessageRepo_UpdateAndSoftDelete(t *testing.T) {
	f := newFixture(t)
	alice := f.profile("alice")
	server := f.server(alice)
	member := f.member(server, alice, models.RoleAdmin)
	channel := f.channel(server, "general")

	fileURL := "/uploads/1-a.pdf"
	msg := &models.Message{Content: "first", FileURL: &fileURL, MemberID: member.ID, ChannelID: channel.ID}
	require.NoError(t, f.messages.Create(f.ctx, msg))

	require.NoError(t, f.messages.UpdateContent(f.ctx, msg.ID, "edited"))
	got, err := f.messages.GetByID(f.ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	require.NoError(t, f.messages.SoftDelete(f.ctx, msg.ID))
	got, err = f.messages.GetByID(f.ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, models.DeletedMessageContent, got.Content)
	assert.Nil(t, got.FileURL)

	// Tombstones cannot be edited and drop out of listings.
	assert.ErrorIs(t, f.messages.UpdateContent(f.ctx, msg.ID, "again"), pkg.ErrNotFound)

	rows, err := f.messages.ListByChannel(f.ctx, channel.ID, "", 11)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

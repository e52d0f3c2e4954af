package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

func TestConversationRepo(t *testing.T) {
	f := newFixture(t)
	alice := f.profile("alice")
	bob := f.profile("bob")
	carol := f.profile("carol")
	server := f.server(alice)
	a := f.member(server, alice, models.RoleAdmin)
	b := f.member(server, bob, models.RoleGuest)
	f.member(server, carol, models.RoleGuest)

	conv := &models.Conversation{MemberOneID: a.ID, MemberTwoID: b.ID}
	require.NoError(t, f.conversations.Create(f.ctx, conv))

	found, err := f.conversations.Find(f.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)

	_, err = f.conversations.Find(f.ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound, "Find is order sensitive")

	dup := &models.Conversation{MemberOneID: a.ID, MemberTwoID: b.ID}
	assert.ErrorIs(t, f.conversations.Create(f.ctx, dup), pkg.ErrAlreadyExists)

	for profileID, want := range map[string]bool{alice.ID: true, bob.ID: true, carol.ID: false} {
		ok, err := f.conversations.IsParticipant(f.ctx, conv.ID, profileID)
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}
}

func TestDirectMessageRepo(t *testing.T) {
	f := newFixture(t)
	alice := f.profile("alice")
	bob := f.profile("bob")
	server := f.server(alice)
	a := f.member(server, alice, models.RoleAdmin)
	b := f.member(server, bob, models.RoleGuest)

	conv := &models.Conversation{MemberOneID: a.ID, MemberTwoID: b.ID}
	require.NoError(t, f.conversations.Create(f.ctx, conv))

	var last *models.DirectMessage
	for i := 0; i < 12; i++ {
		last = &models.DirectMessage{Content: "hi", MemberID: b.ID, ConversationID: conv.ID}
		require.NoError(t, f.dms.Create(f.ctx, last))
	}

	rows, err := f.dms.ListByConversation(f.ctx, conv.ID, "", models.MessagesBatch+1)
	require.NoError(t, err)
	require.Len(t, rows, models.MessagesBatch+1)
	assert.Equal(t, last.ID, rows[0].ID)
	require.NotNil(t, rows[0].Member)
	assert.Equal(t, "bob", rows[0].Member.Profile.Name)

	rows, err = f.dms.ListByConversation(f.ctx, conv.ID, rows[models.MessagesBatch].ID, models.MessagesBatch+1)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, f.dms.SoftDelete(f.ctx, last.ID))
	got, err := f.dms.GetByID(f.ctx, last.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, models.DeletedMessageContent, got.Content)
	assert.ErrorIs(t, f.dms.UpdateContent(f.ctx, last.ID, "x"), pkg.ErrNotFound)

	_, err = f.dms.ListByConversation(f.ctx, conv.ID, "unknown", 11)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(assertErr("UNIQUE constraint failed: conversations.member_one_id")))
	assert.True(t, isUniqueViolation(assertErr(`ERROR: duplicate key value violates unique constraint "x" (SQLSTATE 23505)`)))
	assert.False(t, isUniqueViolation(assertErr("no such table")))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

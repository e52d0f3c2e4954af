package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	id := func(s string) string { return s }

	t.Run("empty", func(t *testing.T) {
		page := NewPage[string](nil, 10, id)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Nil(t, page.NextCursor)
	})

	t.Run("exactly one batch", func(t *testing.T) {
		rows := []string{"a", "b", "c"}
		page := NewPage(rows, 3, id)
		assert.Equal(t, rows, page.Items)
		assert.Nil(t, page.NextCursor)
	})

	t.Run("lookahead row becomes the cursor", func(t *testing.T) {
		page := NewPage([]string{"a", "b", "c", "d"}, 3, id)
		assert.Equal(t, []string{"a", "b", "c"}, page.Items)
		require.NotNil(t, page.NextCursor)
		assert.Equal(t, "d", *page.NextCursor)
	})
}

func TestIsDefaultChannelName(t *testing.T) {
	for _, name := range []string{"general", "General", " GENERAL ", "ｇｅｎｅｒａｌ"} {
		assert.True(t, IsDefaultChannelName(name), name)
	}
	for _, name := range []string{"generals", "gen eral", "random", ""} {
		assert.False(t, IsDefaultChannelName(name), name)
	}
}

func TestCreateChannelRequest_Validate(t *testing.T) {
	req := CreateChannelRequest{Name: "  voice  ", Type: " audio "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "voice", req.Name)
	assert.Equal(t, ChannelTypeAudio, req.Type)

	req = CreateChannelRequest{Name: "chat"}
	require.NoError(t, req.Validate())
	assert.Equal(t, ChannelTypeText, req.Type, "type defaults to TEXT")

	cases := map[string]CreateChannelRequest{
		"empty name": {Name: "   "},
		"general":    {Name: "General"},
		"bad type":   {Name: "x", Type: "STAGE"},
		"long name":  {Name: strings.Repeat("a", maxChannelNameLength+1)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, req.Validate())
		})
	}
}

func TestChannelType_IsMedia(t *testing.T) {
	assert.False(t, ChannelTypeText.IsMedia())
	assert.True(t, ChannelTypeAudio.IsMedia())
	assert.True(t, ChannelTypeVideo.IsMedia())
}

func TestMemberRole(t *testing.T) {
	assert.True(t, RoleAdmin.CanModerate())
	assert.True(t, RoleModerator.CanModerate())
	assert.False(t, RoleGuest.CanModerate())

	req := UpdateMemberRoleRequest{Role: "OWNER"}
	assert.Error(t, req.Validate())
	req.Role = RoleModerator
	assert.NoError(t, req.Validate())
}

func TestCreateServerRequest_Validate(t *testing.T) {
	req := CreateServerRequest{Name: "  Gophers ", ImageURL: " /uploads/1-a.png "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Gophers", req.Name)
	assert.Equal(t, "/uploads/1-a.png", req.ImageURL)

	assert.Error(t, (&CreateServerRequest{Name: "x"}).Validate(), "image is required")
	assert.Error(t, (&CreateServerRequest{ImageURL: "x"}).Validate(), "name is required")
}

func TestUpdateServerRequest_Validate(t *testing.T) {
	assert.NoError(t, (&UpdateServerRequest{Name: "renamed"}).Validate(), "image is optional")
	assert.Error(t, (&UpdateServerRequest{Name: " "}).Validate())
}

func TestMessageRequests_Validate(t *testing.T) {
	create := CreateMessageRequest{Content: "  hi  ", FileURL: " /uploads/x.png "}
	require.NoError(t, create.Validate())
	assert.Equal(t, "hi", create.Content)
	assert.Equal(t, "/uploads/x.png", create.FileURL)

	err := (&CreateMessageRequest{Content: "   "}).Validate()
	require.Error(t, err)
	assert.Equal(t, "content missing", err.Error())

	assert.Error(t, (&UpdateMessageRequest{Content: strings.Repeat("x", maxMessageLength+1)}).Validate())
}

func TestIdentity_Normalize(t *testing.T) {
	id := Identity{UserID: " u1 ", Email: "alice@example.com"}
	require.NoError(t, id.Normalize())
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "alice", id.Name, "name falls back to the e-mail local part")

	id = Identity{UserID: "u2"}
	require.NoError(t, id.Normalize())
	assert.Equal(t, "user", id.Name)

	assert.Error(t, (&Identity{Name: "nobody"}).Normalize())
}

func TestInviteEmailRequest_Validate(t *testing.T) {
	req := InviteEmailRequest{Email: " Bob <bob@example.com> "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "bob@example.com", req.Email)

	assert.Error(t, (&InviteEmailRequest{Email: "not-an-address"}).Validate())
}

func TestConversation_HasMember(t *testing.T) {
	c := Conversation{MemberOneID: "a", MemberTwoID: "b"}
	assert.True(t, c.HasMember("a"))
	assert.True(t, c.HasMember("b"))
	assert.False(t, c.HasMember("c"))
}

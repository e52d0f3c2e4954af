package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

type sentInvite struct {
	to, serverName, code string
}

type fakeSender struct {
	sent []sentInvite
	err  error
}

func (f *fakeSender) SendInvite(_ context.Context, toEmail, serverName, inviteCode string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentInvite{to: toEmail, serverName: serverName, code: inviteCode})
	return nil
}

func TestInviteService_PreviewAndJoin(t *testing.T) {
	e := newEnv(t)
	owner := e.profile("alice")
	guest := e.profile("bob")
	result := e.server(owner)
	invites := NewInviteService(e.serverRepo, e.memberRepo, &fakeSender{})

	preview, err := invites.Preview(e.ctx, " "+result.Server.InviteCode+" ")
	require.NoError(t, err)
	assert.Equal(t, result.Server.ID, preview.ServerID)
	assert.Equal(t, 1, preview.MemberCount)

	joined, err := invites.Join(e.ctx, guest.ID, result.Server.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, result.Server.ID, joined.ID)

	member, err := e.members.Membership(e.ctx, result.Server.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, member.Role)

	// Joining twice keeps the single membership.
	_, err = invites.Join(e.ctx, guest.ID, result.Server.InviteCode)
	require.NoError(t, err)
	members, err := e.memberRepo.ListByServer(e.ctx, result.Server.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// The owner keeps the ADMIN role.
	_, err = invites.Join(e.ctx, owner.ID, result.Server.InviteCode)
	require.NoError(t, err)
	member, err = e.members.Membership(e.ctx, result.Server.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, member.Role)
}

func TestInviteService_UnknownCode(t *testing.T) {
	e := newEnv(t)
	invites := NewInviteService(e.serverRepo, e.memberRepo, &fakeSender{})
	p := e.profile("alice")

	_, err := invites.Preview(e.ctx, "nope")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = invites.Join(e.ctx, p.ID, "nope")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = invites.Join(e.ctx, p.ID, "   ")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestInviteService_SendEmail(t *testing.T) {
	e := newEnv(t)
	result := e.server(e.profile("alice"))
	guest := e.join(result.Server, e.profile("bob"), models.RoleGuest)
	sender := &fakeSender{}
	invites := NewInviteService(e.serverRepo, e.memberRepo, sender)

	err := invites.SendEmail(e.ctx, guest, &models.InviteEmailRequest{Email: "carol@example.com"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	err = invites.SendEmail(e.ctx, result.Member, &models.InviteEmailRequest{Email: "not-an-address"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	require.NoError(t, invites.SendEmail(e.ctx, result.Member, &models.InviteEmailRequest{Email: "carol@example.com"}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "carol@example.com", sender.sent[0].to)
	assert.Equal(t, result.Server.Name, sender.sent[0].serverName)
	assert.Equal(t, result.Server.InviteCode, sender.sent[0].code)
}

func TestInviteService_SendEmailFailures(t *testing.T) {
	e := newEnv(t)
	result := e.server(e.profile("alice"))
	req := &models.InviteEmailRequest{Email: "carol@example.com"}

	disabled := NewInviteService(e.serverRepo, e.memberRepo, &fakeSender{err: fmt.Errorf("%w: email is not configured", pkg.ErrUnavailable)})
	assert.ErrorIs(t, disabled.SendEmail(e.ctx, result.Member, req), pkg.ErrUnavailable)

	broken := NewInviteService(e.serverRepo, e.memberRepo, &fakeSender{err: errors.New("smtp down")})
	err := broken.SendEmail(e.ctx, result.Member, req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, pkg.ErrUnavailable)
	assert.Contains(t, err.Error(), "failed to send invite email")
}

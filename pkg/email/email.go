// Package email sends transactional e-mail. Services depend on Sender;
// the Resend implementation is wired in main.
package email

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/rossosss/zvonok/pkg"
)

// Sender delivers invite e-mails.
type Sender interface {
	// SendInvite mails the invite link of serverName to toEmail.
	SendInvite(ctx context.Context, toEmail, serverName, inviteCode string) error
}

// New returns a Resend-backed sender, or one that always fails with
// pkg.ErrUnavailable when apiKey is empty.
func New(apiKey, fromEmail, appURL string) Sender {
	if apiKey == "" {
		return disabledSender{}
	}
	return NewResendSender(apiKey, fromEmail, appURL)
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender builds a sender for a verified Resend domain. Invite
// links point at {appURL}/invite/{code}.
func NewResendSender(apiKey, fromEmail, appURL string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

// InviteLink is the public URL of an invite code.
func InviteLink(appURL, inviteCode string) string {
	return strings.TrimRight(appURL, "/") + "/invite/" + url.PathEscape(inviteCode)
}

func (s *resendSender) SendInvite(ctx context.Context, toEmail, serverName, inviteCode string) error {
	link := InviteLink(s.appURL, inviteCode)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("zvonok <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: fmt.Sprintf("You're invited to %s on zvonok", serverName),
		Html:    inviteHTML(serverName, link),
		Text:    fmt.Sprintf("You have been invited to join %s.\n\nOpen this link to join: %s\n", serverName, link),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}

func inviteHTML(serverName, link string) string {
	name := html.EscapeString(serverName)
	href := html.EscapeString(link)

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#1e1f22;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#2b2d31;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#f2f3f5;font-size:22px;margin:0 0 16px 0;">Join %s</h1>
              <p style="color:#b5bac1;font-size:15px;line-height:1.6;margin:0 0 24px 0;">
                You have been invited to a server on zvonok.
              </p>
              <a href="%s" style="display:inline-block;background-color:#5865f2;color:#ffffff;text-decoration:none;padding:12px 32px;border-radius:6px;font-weight:600;">
                Accept invite
              </a>
              <p style="color:#80848e;font-size:13px;margin:24px 0 0 0;word-break:break-all;">%s</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, name, href, href)
}

type disabledSender struct{}

func (disabledSender) SendInvite(context.Context, string, string, string) error {
	return fmt.Errorf("%w: email is not configured", pkg.ErrUnavailable)
}

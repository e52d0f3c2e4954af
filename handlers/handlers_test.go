package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/pkg/ratelimit"
	"github.com/rossosss/zvonok/services"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// fakeMessages records the arguments of the last call.
type fakeMessages struct {
	channelID, messageID, cursor string
	caller                       *models.Member
	page                         *models.Page[models.Message]
	err                          error
}

func (f *fakeMessages) List(_ context.Context, caller *models.Member, channelID, cursor string) (*models.Page[models.Message], error) {
	f.caller, f.channelID, f.cursor = caller, channelID, cursor
	return f.page, f.err
}

func (f *fakeMessages) Create(_ context.Context, caller *models.Member, channelID string, req *models.CreateMessageRequest) (*models.Message, error) {
	f.caller, f.channelID = caller, channelID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{ID: "m1", Content: req.Content, MemberID: caller.ID, ChannelID: channelID}, nil
}

func (f *fakeMessages) Update(_ context.Context, caller *models.Member, channelID, messageID string, req *models.UpdateMessageRequest) (*models.Message, error) {
	f.caller, f.channelID, f.messageID = caller, channelID, messageID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{ID: messageID, Content: req.Content, ChannelID: channelID}, nil
}

func (f *fakeMessages) Delete(_ context.Context, caller *models.Member, channelID, messageID string) (*models.Message, error) {
	f.caller, f.channelID, f.messageID = caller, channelID, messageID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{ID: messageID, Deleted: true, ChannelID: channelID}, nil
}

type fakeInvites struct {
	joins int
}

func (f *fakeInvites) Preview(_ context.Context, code string) (*models.InvitePreview, error) {
	if code != "abc" {
		return nil, fmt.Errorf("%w: invite not found", pkg.ErrNotFound)
	}
	return &models.InvitePreview{ServerID: "s1", ServerName: "Rust", MemberCount: 3}, nil
}

func (f *fakeInvites) Join(_ context.Context, _, _ string) (*models.Server, error) {
	f.joins++
	return &models.Server{ID: "s1", Name: "Rust"}, nil
}

func (f *fakeInvites) SendEmail(context.Context, *models.Member, *models.InviteEmailRequest) error {
	return nil
}

func withMember(r *http.Request, m *models.Member) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), MemberContextKey, m))
}

func withProfile(r *http.Request, p *models.Profile) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ProfileContextKey, p))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) pkg.APIResponse {
	t.Helper()

	var resp pkg.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestMessageHandler_ListGolden(t *testing.T) {
	next := "m1"
	messages := &fakeMessages{page: &models.Page[models.Message]{
		Items: []models.Message{{
			ID:        "m2",
			Content:   "second",
			MemberID:  "mem1",
			ChannelID: "ch1",
			CreatedAt: fixedTime,
			UpdatedAt: fixedTime,
		}},
		NextCursor: &next,
	}}
	h := NewMessageHandler(messages)
	member := &models.Member{ID: "mem1", ServerID: "s1"}

	req := httptest.NewRequest(http.MethodGet, "/api/servers/s1/channels/ch1/messages?cursor=m3", nil)
	req.SetPathValue("channelId", "ch1")
	rec := httptest.NewRecorder()
	h.List(rec, withMember(req, member))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ch1", messages.channelID)
	assert.Equal(t, "m3", messages.cursor)
	assert.Same(t, member, messages.caller)

	var indented bytes.Buffer
	require.NoError(t, json.Indent(&indented, rec.Body.Bytes(), "", "  "))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "message_page", indented.Bytes())
}

func TestMessageHandler_Errors(t *testing.T) {
	member := &models.Member{ID: "mem1", ServerID: "s1"}

	t.Run("no member", func(t *testing.T) {
		h := NewMessageHandler(&fakeMessages{})
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeEnvelope(t, rec).Error)
	})

	t.Run("bad body", func(t *testing.T) {
		h := NewMessageHandler(&fakeMessages{})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
		h.Create(rec, withMember(req, member))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", decodeEnvelope(t, rec).Error)
	})

	t.Run("domain error keeps its reason", func(t *testing.T) {
		h := NewMessageHandler(&fakeMessages{err: fmt.Errorf("%w: channel not found", pkg.ErrNotFound)})
		rec := httptest.NewRecorder()
		h.List(rec, withMember(httptest.NewRequest(http.MethodGet, "/", nil), member))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "not found: channel not found", resp.Error)
	})

	t.Run("internal error is masked", func(t *testing.T) {
		h := NewMessageHandler(&fakeMessages{err: fmt.Errorf("failed to list messages: disk on fire")})
		rec := httptest.NewRecorder()
		h.List(rec, withMember(httptest.NewRequest(http.MethodGet, "/", nil), member))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", decodeEnvelope(t, rec).Error)
	})

	t.Run("rate limited", func(t *testing.T) {
		h := NewMessageHandler(&fakeMessages{err: &services.RateLimitedError{RetryAfter: 15}})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"hi"}`))
		h.Create(rec, withMember(req, member))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "15", rec.Header().Get("Retry-After"))
		assert.Contains(t, decodeEnvelope(t, rec).Error, "retry in 15 seconds")
	})
}

func TestMessageHandler_Writes(t *testing.T) {
	messages := &fakeMessages{}
	h := NewMessageHandler(messages)
	member := &models.Member{ID: "mem1", ServerID: "s1"}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"hello"}`))
	req.SetPathValue("channelId", "ch1")
	rec := httptest.NewRecorder()
	h.Create(rec, withMember(req, member))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ch1", messages.channelID)

	req = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"content":"edited"}`))
	req.SetPathValue("channelId", "ch1")
	req.SetPathValue("messageId", "m1")
	rec = httptest.NewRecorder()
	h.Update(rec, withMember(req, member))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m1", messages.messageID)

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	req.SetPathValue("channelId", "ch1")
	req.SetPathValue("messageId", "m2")
	rec = httptest.NewRecorder()
	h.Delete(rec, withMember(req, member))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m2", messages.messageID)
	assert.Contains(t, rec.Body.String(), `"deleted":true`)
}

func TestInviteHandler_JoinRateLimit(t *testing.T) {
	invites := &fakeInvites{}
	limiter := ratelimit.NewWindowLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	h := NewInviteHandler(invites, limiter)
	profile := &models.Profile{ID: "p1"}

	join := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/invites/abc", nil)
		req.SetPathValue("inviteCode", "abc")
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.Join(rec, withProfile(req, profile))
		return rec
	}

	assert.Equal(t, http.StatusOK, join().Code)
	assert.Equal(t, http.StatusOK, join().Code)

	rec := join()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, invites.joins)
}

func TestInviteHandler_Preview(t *testing.T) {
	h := NewInviteHandler(&fakeInvites{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/invites/abc", nil)
	req.SetPathValue("inviteCode", "abc")
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"member_count":3`)

	req = httptest.NewRequest(http.MethodGet, "/api/invites/zzz", nil)
	req.SetPathValue("inviteCode", "zzz")
	rec = httptest.NewRecorder()
	h.Preview(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartBody(t *testing.T, field, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
		header["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	dir := t.TempDir()
	h := NewUploadHandler(services.NewUploadService(dir, 1<<20), 1<<20)
	profile := &models.Profile{ID: "p1"}

	body, contentType := multipartBody(t, "file", "cat.png", "image/png", "png bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, withProfile(req, profile))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data models.UploadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.Data.URL, services.UploadURLPrefix))
	assert.True(t, strings.HasSuffix(resp.Data.URL, "-cat.png"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(resp.Data.URL, services.UploadURLPrefix)))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(stored))

	body, contentType = multipartBody(t, "", "", "", "")
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.Upload(rec, withProfile(req, profile))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", decodeEnvelope(t, rec).Error)

	body, contentType = multipartBody(t, "file", "run.sh", "application/x-sh", "echo")
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.Upload(rec, withProfile(req, profile))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileHandler_Me(t *testing.T) {
	h := NewProfileHandler()

	rec := httptest.NewRecorder()
	h.Me(rec, withProfile(httptest.NewRequest(http.MethodGet, "/api/profile", nil), &models.Profile{ID: "p1", Name: "alice"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"alice"`)

	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

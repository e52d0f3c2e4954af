// Package handlers is the HTTP layer. Handlers stay thin: decode the
// request, call one service, write the envelope. They hold no business
// rules and never touch the database.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

type contextKey string

// ProfileContextKey carries the authenticated *models.Profile. Set by the
// auth middleware.
const ProfileContextKey contextKey = "profile"

// MemberContextKey carries the caller's *models.Member of the {serverId}
// in the path. Set by the server membership middleware.
const MemberContextKey contextKey = "member"

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// ProfileFromRequest returns the authenticated profile.
func ProfileFromRequest(r *http.Request) (*models.Profile, bool) {
	p, ok := r.Context().Value(ProfileContextKey).(*models.Profile)
	return p, ok && p != nil
}

// MemberFromRequest returns the caller's membership of the path's server.
func MemberFromRequest(r *http.Request) (*models.Member, bool) {
	m, ok := r.Context().Value(MemberContextKey).(*models.Member)
	return m, ok && m != nil
}

func requireProfile(w http.ResponseWriter, r *http.Request) (*models.Profile, bool) {
	p, ok := ProfileFromRequest(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}

func requireMember(w http.ResponseWriter, r *http.Request) (*models.Member, bool) {
	m, ok := MemberFromRequest(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "unauthorized")
	}
	return m, ok
}

// decodeJSON reads a JSON body into dst and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeError is pkg.Error plus a Retry-After header for rate-limited calls.
func writeError(w http.ResponseWriter, err error) {
	var limited *services.RateLimitedError
	if errors.As(err, &limited) {
		w.Header().Set("Retry-After", strconv.Itoa(limited.RetryAfter))
	}
	pkg.Error(w, err)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// Me godoc
// GET /api/profile
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := requireProfile(w, r)
	if !ok {
		return
	}
	pkg.JSON(w, http.StatusOK, profile)
}

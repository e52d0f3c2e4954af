package middleware

import (
	"context"
	"net/http"

	"github.com/rossosss/zvonok/handlers"
	"github.com/rossosss/zvonok/pkg"
	"github.com/rossosss/zvonok/services"
)

// ServerMembershipMiddleware resolves the caller's membership of the
// {serverId} path parameter. Runs after AuthMiddleware.
//
// Non-members get the same 404 as a missing server, so server ids cannot
// be probed.
type ServerMembershipMiddleware struct {
	memberService services.MemberService
}

func NewServerMembershipMiddleware(memberService services.MemberService) *ServerMembershipMiddleware {
	return &ServerMembershipMiddleware{memberService: memberService}
}

// Require puts the caller's *models.Member under handlers.MemberContextKey.
func (m *ServerMembershipMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, ok := handlers.ProfileFromRequest(r)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		serverID := r.PathValue("serverId")
		if serverID == "" {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "server id missing")
			return
		}

		member, err := m.memberService.Membership(r.Context(), serverID, profile.ID)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.MemberContextKey, member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

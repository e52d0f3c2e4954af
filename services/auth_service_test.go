package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

const testSecret = "test-secret-with-enough-entropy"

func TestAuthService_IssueAndAuthenticate(t *testing.T) {
	e := newEnv(t)
	auth := NewAuthService(NewProfileService(e.profileRepo, nil), testSecret, "zvonok-test")

	token, err := auth.IssueToken(models.Identity{UserID: "user_1", Email: "alice@example.com"}, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.Subject)
	assert.Equal(t, "alice", claims.Name, "name falls back to the e-mail local part")

	profile, err := auth.Authenticate(e.ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "user_1", profile.UserID)

	again, err := auth.Authenticate(e.ctx, token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
}

func TestAuthService_RejectsInvalidTokens(t *testing.T) {
	e := newEnv(t)
	profiles := NewProfileService(e.profileRepo, nil)
	auth := NewAuthService(profiles, testSecret, "zvonok-test")
	identity := models.Identity{UserID: "user_1", Name: "alice"}

	otherSecret, err := NewAuthService(profiles, "another-secret", "zvonok-test").IssueToken(identity, time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewAuthService(profiles, testSecret, "someone-else").IssueToken(identity, time.Hour)
	require.NoError(t, err)
	expired, err := auth.IssueToken(identity, -time.Minute)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_1",
		"iss": "zvonok-test",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "user_1",
		"iss": "zvonok-test",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "zvonok-test",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"other secret": otherSecret,
		"other issuer": otherIssuer,
		"expired":      expired,
		"no expiry":    noExpiry,
		"wrong alg":    wrongAlg,
		"no subject":   noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Authenticate(e.ctx, token)
			assert.ErrorIs(t, err, pkg.ErrUnauthorized)
		})
	}
}

func TestAuthService_IssueTokenNeedsSubject(t *testing.T) {
	auth := NewAuthService(nil, testSecret, "")

	_, err := auth.IssueToken(models.Identity{Name: "alice"}, time.Hour)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

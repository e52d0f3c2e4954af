// Package services holds the business rules. Services take and return
// domain models only: they never see http types and never run SQL
// themselves, going through repository interfaces instead.
//
// Failures are returned wrapped around a pkg sentinel with a short reason,
// e.g. fmt.Errorf("%w: insufficient permissions", pkg.ErrForbidden).
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

// AuthService verifies the identity provider's bearer tokens.
type AuthService interface {
	// ValidateToken checks signature, expiry and (when configured) issuer.
	ValidateToken(tokenString string) (*models.TokenClaims, error)

	// Authenticate validates the token and returns the caller's profile,
	// creating it on first sight.
	Authenticate(ctx context.Context, tokenString string) (*models.Profile, error)

	// IssueToken signs a token for identity. Used by the development CLI;
	// production tokens come from the identity provider.
	IssueToken(identity models.Identity, ttl time.Duration) (string, error)
}

type authService struct {
	profiles  ProfileService
	jwtSecret []byte
	issuer    string
}

// NewAuthService accepts HS256 tokens signed with jwtSecret. A non-empty
// issuer must match the iss claim.
func NewAuthService(profiles ProfileService, jwtSecret, issuer string) AuthService {
	return &authService{
		profiles:  profiles,
		jwtSecret: []byte(jwtSecret),
		issuer:    issuer,
	}
}

func (s *authService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*models.Profile, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	identity := claims.Identity()
	if err := identity.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, err.Error())
	}

	return s.profiles.InitialProfile(ctx, identity)
}

func (s *authService) IssueToken(identity models.Identity, ttl time.Duration) (string, error) {
	if err := identity.Normalize(); err != nil {
		return "", fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	now := time.Now()
	claims := &models.TokenClaims{
		Name:    identity.Name,
		Email:   identity.Email,
		Picture: identity.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

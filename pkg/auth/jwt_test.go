package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "super-secret-jwt-token-with-at-least-32-characters"

func newValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secret,
		Issuer:        "http://localhost:54321/auth/v1",
		Audience:      []string{"authenticated"},
	})
	require.NoError(t, err)
	return v
}

func TestJWTValidator_Verify(t *testing.T) {
	v := newValidator(t)
	iss := NewIssuer(secret, "http://localhost:54321/auth/v1", []string{"authenticated"}, time.Hour)

	token, err := iss.Sign(Principal{UserID: "0b5c7c1e-user", Email: "ada@example.com", Role: "authenticated"})
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "0b5c7c1e-user", p.UserID)
	assert.Equal(t, "ada@example.com", p.Email)
}

func TestJWTValidator_Rejects(t *testing.T) {
	v := newValidator(t)

	expired := NewIssuer(secret, "http://localhost:54321/auth/v1", []string{"authenticated"}, -time.Minute)
	wrongKey := NewIssuer("another-secret-another-secret-another", "http://localhost:54321/auth/v1", []string{"authenticated"}, time.Hour)
	wrongAud := NewIssuer(secret, "http://localhost:54321/auth/v1", []string{"anon"}, time.Hour)

	sign := func(i *Issuer) string {
		tok, err := i.Sign(Principal{UserID: "u1"})
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", ErrMissingToken},
		{"bearer only", "Bearer ", ErrMissingToken},
		{"expired", sign(expired), ErrExpiredToken},
		{"wrong key", sign(wrongKey), ErrInvalidSignature},
		{"wrong audience", sign(wrongAud), ErrInvalidClaims},
		{"garbage", "not.a.jwt", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewJWTValidator_Config(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "ES512", SecretKey: "x"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "RS256"})
	assert.Error(t, err)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), &Principal{UserID: "u1"})
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", p.UserID)
}

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc", StripBearer("Bearer abc"))
	assert.Equal(t, "abc", StripBearer("bearer  abc "))
	assert.Equal(t, "abc", StripBearer("abc"))
	assert.Equal(t, "", StripBearer("Bearer "))
	assert.Equal(t, "", StripBearer("  bearer"))
	assert.Equal(t, "bearerabc", StripBearer("bearerabc"))
}

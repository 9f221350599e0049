package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test_secret_key_1234567890"
	testUID    = "8d5f3c1a-1111-4a2b-9c3d-0000000000ff"
)

var issuedAt = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedMaker(secret string, ttl time.Duration, at time.Time) *MakerImpl {
	m := NewJWTMaker(secret, ttl)
	m.now = func() time.Time { return at }
	return m
}

func TestMaker_RoundTrip(t *testing.T) {
	maker := fixedMaker(testSecret, 24*time.Hour, issuedAt)

	token, err := maker.GenerateToken("ana", "user", testUID)
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, testUID, claims.UserUID)
	assert.Equal(t, testUID, claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Equal(t, issuedAt, claims.IssuedAt.Time.UTC())
	assert.Equal(t, issuedAt.Add(24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestMaker_ParseToken_Rejects(t *testing.T) {
	maker := fixedMaker(testSecret, time.Hour, issuedAt)
	valid, err := maker.GenerateToken("ana", "user", testUID)
	require.NoError(t, err)

	sign := func(c CustomClaims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() CustomClaims {
		return CustomClaims{
			Username: "ana",
			Role:     "user",
			UserUID:  testUID,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				IssuedAt:  jwt.NewNumericDate(issuedAt),
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		}
	}

	foreignIssuer := base()
	foreignIssuer.Issuer = "someone-else"
	noUID := base()
	noUID.UserUID = ""
	parts := strings.Split(valid, ".")

	tests := []struct {
		name  string
		token string
		at    time.Time
	}{
		{name: "empty", token: "", at: issuedAt},
		{name: "malformed", token: "not.a.jwt", at: issuedAt},
		{name: "expired", token: valid, at: issuedAt.Add(2 * time.Hour)},
		{name: "wrong secret", token: sign(base(), jwt.SigningMethodHS256, []byte("other-secret")), at: issuedAt},
		{name: "other algorithm", token: sign(base(), jwt.SigningMethodHS512, []byte(testSecret)), at: issuedAt},
		{name: "foreign issuer", token: sign(foreignIssuer, jwt.SigningMethodHS256, []byte(testSecret)), at: issuedAt},
		{name: "without user uid", token: sign(noUID, jwt.SigningMethodHS256, []byte(testSecret)), at: issuedAt},
		{name: "tampered payload", token: parts[0] + "." + parts[1] + "x." + parts[2], at: issuedAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := fixedMaker(testSecret, time.Hour, tt.at).ParseToken(tt.token)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "jwt.ParseToken")
			assert.Nil(t, claims)
		})
	}
}

func TestMaker_ExpiresAfterTTL(t *testing.T) {
	token, err := fixedMaker(testSecret, time.Minute, issuedAt).GenerateToken("ana", "user", testUID)
	require.NoError(t, err)

	_, err = fixedMaker(testSecret, time.Minute, issuedAt.Add(59*time.Second)).ParseToken(token)
	assert.NoError(t, err)

	_, err = fixedMaker(testSecret, time.Minute, issuedAt.Add(61*time.Second)).ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-navigator/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func newTestJWTService(t *testing.T, expirationHours int) *JWTService {
	t.Helper()
	cfg, err := config.NewJWTConfigWith(testSecret, expirationHours)
	require.NoError(t, err)
	return NewJWTService(cfg)
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := newTestJWTService(t, 24)
	sessionID := uuid.New()

	token, err := service.GenerateToken(sessionID)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, sessionID.String(), claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTService_Expired(t *testing.T) {
	service := newTestJWTService(t, 1)
	issued := time.Now().Add(-2 * time.Hour)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken(uuid.New())
	require.NoError(t, err)

	service.now = time.Now
	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := newTestJWTService(t, 24).GenerateToken(uuid.New())
	require.NoError(t, err)

	cfg, err := config.NewJWTConfigWith("a-different-secret", 24)
	require.NoError(t, err)
	_, err = NewJWTService(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWTService_Malformed(t *testing.T) {
	service := newTestJWTService(t, 24)

	_, err := service.ValidateToken("")
	assert.Error(t, err)

	_, err = service.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		SessionID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newTestJWTService(t, 24).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RequiresSessionClaim(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newTestJWTService(t, 24).ValidateToken(token)
	assert.ErrorContains(t, err, "no session")
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := newTestJWTService(t, 24)
	sessionID := uuid.New()
	token, err := service.GenerateToken(sessionID)
	require.NoError(t, err)

	got, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got.GetSessionID())

	_, err = service.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}

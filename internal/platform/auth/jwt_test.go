package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var caller = domain.Address("SP_ALICE")
var expiresIn = time.Hour

func Test_IssueToken(t *testing.T) {
	token, err := jwtService.IssueToken(caller, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	got, err := claims.Caller()
	require.NoError(t, err)
	assert.Equal(t, caller, got)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_IssueToken_RequiresCaller(t *testing.T) {
	_, err := jwtService.IssueToken("", expiresIn)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid token", dErrors.Message(err))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.IssueToken(caller, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.Message(err))
}

func Test_ValidateToken_WrongKeyOrAudience(t *testing.T) {
	other := NewJWTService("other-key", "test-issuer", "test-audience")
	token, err := other.IssueToken(caller, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	otherAudience := NewJWTService("test-signing-key", "test-issuer", "elsewhere")
	token, err = otherAudience.IssueToken(caller, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_SubjectMustBeAddress(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not an address!",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "test-issuer",
			Audience:  []string{"test-audience"},
		},
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Adapter(t *testing.T) {
	token, err := jwtService.IssueToken(caller, expiresIn)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, caller.String(), claims.Caller)
	assert.NotEmpty(t, claims.JTI)
}

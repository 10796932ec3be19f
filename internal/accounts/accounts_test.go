package accounts

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckSecret(t *testing.T) {
	hashed, err := HashSecret("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hashed)
	assert.True(t, CheckSecret(hashed, "s3cret"))
	assert.False(t, CheckSecret(hashed, "guess"))

	_, err = HashSecret("")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	token, exp, err := IssueToken("key", "lab-rig", time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	id, err := ParseToken("key", token)
	require.NoError(t, err)
	assert.Equal(t, "lab-rig", id)

	_, err = ParseToken("other-key", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, _, err := IssueToken("key", "lab-rig", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("key", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenNeedsClientID(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"player_id": 7,
		"exp":       time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("key"))
	require.NoError(t, err)

	_, err = ParseToken("key", signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOnlyHS256Accepted(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"client_id": "lab-rig",
		"exp":       time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("key"))
	require.NoError(t, err)

	_, err = ParseToken("key", signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package lib

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "tokens-test-secret")
	os.Exit(m.Run())
}

func TestSessionTokenRoundtrip(t *testing.T) {
	token, err := NewSessionToken(time.Now().Add(30 * time.Minute))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, VerifySessionToken(token))
}

func TestSessionTokensAreUnique(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute)
	a, err := NewSessionToken(exp)
	require.NoError(t, err)
	b, err := NewSessionToken(exp)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := NewSessionToken(time.Now().Add(-time.Minute))
	require.NoError(t, err)

	assert.Error(t, VerifySessionToken(token))
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := NewSessionToken(time.Now().Add(30 * time.Minute))
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	assert.Error(t, VerifySessionToken(tampered))
}

func TestGarbageTokenRejected(t *testing.T) {
	assert.Error(t, VerifySessionToken("not-a-jwt"))
	assert.Error(t, VerifySessionToken(""))
}

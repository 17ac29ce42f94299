package helper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memNonces struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memNonces) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

const testSecret = "0123456789abcdef-test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	auth := SetupAuth(testSecret, 0, &memNonces{})

	token, err := auth.GenerateToken(7, "admin@example.com")
	require.NoError(t, err)

	claims, err := auth.VerifyToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)

	_, err = SetupAuth("another-secret-entirely", 0, nil).VerifyToken(token)
	assert.Error(t, err)

	_, err = auth.GenerateToken(0, "admin@example.com")
	assert.Error(t, err)
}

func TestActionTokenSingleUse(t *testing.T) {
	auth := SetupAuth(testSecret, time.Minute, &memNonces{})
	ctx := context.Background()

	token, exp, err := auth.GenerateActionToken(7, "approve", "42")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	require.NoError(t, auth.VerifyActionToken(ctx, token, 7, "approve", "42"))
	assert.ErrorIs(t, auth.VerifyActionToken(ctx, token, 7, "approve", "42"), ErrActionTokenUsed)
}

func TestActionTokenBinding(t *testing.T) {
	auth := SetupAuth(testSecret, time.Minute, &memNonces{})
	ctx := context.Background()

	token, _, err := auth.GenerateActionToken(7, "delete", "42")
	require.NoError(t, err)

	assert.ErrorIs(t, auth.VerifyActionToken(ctx, token, 8, "delete", "42"), ErrActionTokenMismatch)
	assert.ErrorIs(t, auth.VerifyActionToken(ctx, token, 7, "approve", "42"), ErrActionTokenMismatch)
	assert.ErrorIs(t, auth.VerifyActionToken(ctx, token, 7, "delete", "43"), ErrActionTokenMismatch)

	// mismatches do not burn the token
	assert.NoError(t, auth.VerifyActionToken(ctx, token, 7, "delete", "42"))
}

func TestActionTokenRejected(t *testing.T) {
	ctx := context.Background()
	nonces := &memNonces{}

	expired := Auth{Secret: testSecret, ActionTTL: -time.Minute, nonces: nonces}
	token, _, err := expired.GenerateActionToken(7, "approve", "42")
	require.NoError(t, err)
	assert.ErrorIs(t, expired.VerifyActionToken(ctx, token, 7, "approve", "42"), ErrActionTokenInvalid)

	auth := SetupAuth(testSecret, time.Minute, nonces)
	assert.ErrorIs(t, auth.VerifyActionToken(ctx, "", 7, "approve", "42"), ErrActionTokenInvalid)
	assert.ErrorIs(t, auth.VerifyActionToken(ctx, "garbage", 7, "approve", "42"), ErrActionTokenInvalid)

	forged, _, err := SetupAuth("a-different-secret-value", time.Minute, nonces).GenerateActionToken(7, "approve", "42")
	require.NoError(t, err)
	assert.ErrorIs(t, auth.VerifyActionToken(ctx, forged, 7, "approve", "42"), ErrActionTokenInvalid)

	// session tokens are not action tokens
	session, err := auth.GenerateToken(7, "admin@example.com")
	require.NoError(t, err)
	assert.Error(t, auth.VerifyActionToken(ctx, session, 7, "approve", "42"))

	_, _, err = auth.GenerateActionToken(7, " ", "42")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	auth := SetupAuth(testSecret, 0, nil)
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyPassword("correct horse", hash))
	assert.Error(t, auth.VerifyPassword("wrong horse", hash))
}

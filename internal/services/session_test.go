package services

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bilah/internal/config"
)

func testSessionService(t *testing.T) *SessionService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewSessionService(config.Admin{
		Username:      "admin",
		PasswordHash:  string(hash),
		SessionSecret: "test-secret",
	})
}

func TestVerifyCredentials(t *testing.T) {
	s := testSessionService(t)

	assert.True(t, s.VerifyCredentials("admin", "hunter2"))
	assert.False(t, s.VerifyCredentials("admin", "wrong"))
	assert.False(t, s.VerifyCredentials("root", "hunter2"))
}

func TestVerifyCredentialsWithoutHash(t *testing.T) {
	s := NewSessionService(config.Admin{Username: "admin"})
	assert.False(t, s.VerifyCredentials("admin", "anything"))
}

func TestSessionRoundTrip(t *testing.T) {
	s := testSessionService(t)

	value := s.Issue()
	assert.True(t, s.Verify(value))
}

func TestSessionRejectsTampering(t *testing.T) {
	s := testSessionService(t)
	value := s.Issue()

	t.Run("ForeignSecret", func(t *testing.T) {
		other := NewSessionService(config.Admin{Username: "admin", SessionSecret: "different"})
		assert.False(t, other.Verify(value))
	})

	t.Run("ModifiedPayload", func(t *testing.T) {
		dot := strings.IndexByte(value, '.')
		forged, err := json.Marshal(map[string]any{"u": "admin", "t": 0})
		require.NoError(t, err)
		tampered := base64.RawURLEncoding.EncodeToString(forged) + value[dot:]
		assert.False(t, s.Verify(tampered))
	})

	t.Run("WrongSubject", func(t *testing.T) {
		// Signed correctly but for a different subject.
		payload, err := json.Marshal(sessionPayload{U: "guest", T: 1})
		require.NoError(t, err)
		forged := encode(payload) + "." + encode(s.sign(payload))
		assert.False(t, s.Verify(forged))
	})

	t.Run("Garbage", func(t *testing.T) {
		assert.False(t, s.Verify(""))
		assert.False(t, s.Verify("no-dot-here"))
		assert.False(t, s.Verify("!!!.???"))
	})
}

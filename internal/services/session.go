package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bilah/internal/config"
)

// SessionCookie is the legacy admin session cookie name.
const SessionCookie = "admin_session"

// SessionService issues and verifies the legacy signed-cookie admin session.
// The cookie value is base64url(payload) + "." + base64url(hmac-sha256);
// the payload is {"u":"admin","t":<epoch-ms>}.
type SessionService struct {
	secret       []byte
	username     string
	passwordHash string
}

type sessionPayload struct {
	U string `json:"u"`
	T int64  `json:"t"`
}

// NewSessionService builds the service from the admin config.
func NewSessionService(cfg config.Admin) *SessionService {
	return &SessionService{
		secret:       []byte(cfg.SessionSecret),
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
	}
}

// VerifyCredentials checks the legacy admin login against the configured
// username and bcrypt hash.
func (s *SessionService) VerifyCredentials(username, password string) bool {
	if username != s.username || s.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) == nil
}

// Issue creates a fresh session cookie value.
func (s *SessionService) Issue() string {
	payload, _ := json.Marshal(sessionPayload{U: "admin", T: time.Now().UnixMilli()})
	return encode(payload) + "." + encode(s.sign(payload))
}

// Verify checks the signature in constant time and accepts the session only
// when the embedded subject is exactly "admin". Lifetime is enforced by the
// cookie Max-Age, not by the payload timestamp.
func (s *SessionService) Verify(value string) bool {
	dot := strings.IndexByte(value, '.')
	if dot < 0 {
		return false
	}
	payload, err := decode(value[:dot])
	if err != nil {
		return false
	}
	sig, err := decode(value[dot+1:])
	if err != nil {
		return false
	}
	if !hmac.Equal(sig, s.sign(payload)) {
		return false
	}
	var p sessionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return false
	}
	return p.U == "admin"
}

func (s *SessionService) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

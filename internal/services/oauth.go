package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"bilah/internal/config"
)

// TokenCookie is the OAuth admin session cookie name.
const TokenCookie = "admin_token"

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthService runs the current admin login: Google code flow, allow-listed
// admin emails, session carried as a signed JWT cookie.
type OAuthService struct {
	oauth   *oauth2.Config
	allowed []string
	secret  []byte
	log     *zap.Logger
}

// NewOAuthService builds the service; it stays disabled (Enabled() false)
// when the client credentials are not configured.
func NewOAuthService(cfg config.OAuth, admin config.Admin, log *zap.Logger) *OAuthService {
	var oc *oauth2.Config
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		oc = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	return &OAuthService{
		oauth:   oc,
		allowed: admin.AllowedEmails,
		secret:  []byte(admin.SessionSecret),
		log:     log,
	}
}

// Enabled reports whether OAuth login is configured.
func (s *OAuthService) Enabled() bool { return s.oauth != nil }

// AuthURL returns the provider authorization URL for the given state.
func (s *OAuthService) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// HandleCallback exchanges the code, fetches the user info and returns a
// session token when the email is an allow-listed admin.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (string, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}

	client := s.oauth.Client(ctx, token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return "", fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("user info status %d: %s", resp.StatusCode, body)
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode user info: %w", err)
	}
	if !s.isAllowed(info.Email) {
		s.log.Warn("oauth login rejected", zap.String("email", info.Email))
		return "", fmt.Errorf("email not allowed")
	}
	return s.issueToken(info.Email, info.Name)
}

// VerifyToken validates the session JWT and returns the admin email.
func (s *OAuthService) VerifyToken(value string) (string, bool) {
	token, err := jwt.Parse(value, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	email, _ := claims["sub"].(string)
	if !s.isAllowed(email) {
		return "", false
	}
	return email, true
}

func (s *OAuthService) issueToken(email, name string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  "bilah",
		"sub":  email,
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *OAuthService) isAllowed(email string) bool {
	if email == "" {
		return false
	}
	for _, allowed := range s.allowed {
		if email == allowed {
			return true
		}
	}
	return false
}

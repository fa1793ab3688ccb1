package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when no Neon Auth base URL is set.
var ErrNotConfigured = errors.New("NEON_AUTH_BASE_URL is not set")

// DefaultName is used when a token carries no usable name claim.
const DefaultName = "Player"

// Validator validates Neon Auth JWTs against the JWKS published under baseURL.
// The JWKS client is created on first use and reused afterwards.
type Validator struct {
	baseURL string

	mu   sync.Mutex
	jwks keyfunc.Keyfunc
}

// NewValidator returns a Validator for baseURL. An empty baseURL yields a
// Validator that rejects every token with ErrNotConfigured.
func NewValidator(baseURL string) *Validator {
	return &Validator{baseURL: strings.TrimRight(baseURL, "/")}
}

// Configured reports whether a base URL is set.
func (v *Validator) Configured() bool {
	return v != nil && v.baseURL != ""
}

func (v *Validator) keyfunc() (keyfunc.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		return v.jwks, nil
	}
	jwks, err := keyfunc.NewDefault([]string{v.baseURL + "/.well-known/jwks.json"})
	if err != nil {
		return nil, err
	}
	v.jwks = jwks
	return jwks, nil
}

// Validate parses tokenString and returns its claims.
func (v *Validator) Validate(tokenString string) (jwt.MapClaims, error) {
	if !v.Configured() {
		return nil, ErrNotConfigured
	}
	issuer, err := expectedIssuer(v.baseURL)
	if err != nil {
		return nil, err
	}
	jwks, err := v.keyfunc()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, jwks.Keyfunc,
		jwt.WithIssuer(issuer),
		jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// expectedIssuer is the scheme and host of the base URL.
func expectedIssuer(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL: %q", baseURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// FirstNameFromClaims returns the first word of the "name" claim, or a fallback.
func FirstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return DefaultName
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}

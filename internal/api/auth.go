package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/hyperengineering/hydro/internal/metrics"
	"github.com/hyperengineering/hydro/internal/types"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errNoSubject    = errors.New("token has no subject")
	errIssuer       = errors.New("token issuer mismatch")
)

// Authenticator resolves HMAC-signed bearer tokens to identities. Token
// issuance happens elsewhere; only verification is done here.
type Authenticator struct {
	secret  []byte
	issuer  string
	leeway  time.Duration
	metrics *metrics.Metrics
}

// NewAuthenticator creates an Authenticator. An empty issuer disables the
// iss check.
func NewAuthenticator(secret, issuer string, leeway time.Duration, m *metrics.Metrics) *Authenticator {
	return &Authenticator{
		secret:  []byte(secret),
		issuer:  issuer,
		leeway:  leeway,
		metrics: m,
	}
}

// claims applies the configured leeway to the time-based checks.
type claims struct {
	jwt.RegisteredClaims
	leeway time.Duration
}

func (c *claims) Valid() error {
	now := jwt.TimeFunc()
	if !c.VerifyExpiresAt(now.Add(-c.leeway), false) {
		return jwt.NewValidationError("token is expired", jwt.ValidationErrorExpired)
	}
	if !c.VerifyIssuedAt(now.Add(c.leeway), false) {
		return jwt.NewValidationError("token used before issued", jwt.ValidationErrorIssuedAt)
	}
	if !c.VerifyNotBefore(now.Add(c.leeway), false) {
		return jwt.NewValidationError("token is not valid yet", jwt.ValidationErrorNotValidYet)
	}
	return nil
}

// Identify verifies tokenString and returns its subject.
func (a *Authenticator) Identify(tokenString string) (types.Identity, error) {
	if tokenString == "" {
		return "", errMissingToken
	}
	if len(a.secret) == 0 {
		return "", errors.New("no verification secret configured")
	}

	c := &claims{leeway: a.leeway}
	_, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	if a.issuer != "" && !c.VerifyIssuer(a.issuer, true) {
		return "", errIssuer
	}
	if c.Subject == "" {
		return "", errNoSubject
	}
	return types.Identity(c.Subject), nil
}

// Middleware attaches the verified identity to the request context.
// Returns 401 RFC 7807 Problem Details on any verification failure.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.Identify(extractBearerToken(r))
		if err != nil {
			reason := failureReason(err)
			a.metrics.AuthFailed(reason)
			slog.Warn("auth failure",
				"reason", reason,
				"path", r.URL.Path,
				"method", r.Method,
				"remote_ip", r.RemoteAddr,
			)
			WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// extractBearerToken extracts the token from Authorization header.
// Returns empty string for missing/malformed headers.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 6750)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

func failureReason(err error) string {
	var verr *jwt.ValidationError
	switch {
	case errors.Is(err, errMissingToken):
		return "missing"
	case errors.Is(err, errIssuer):
		return "issuer"
	case errors.Is(err, errNoSubject):
		return "subject"
	case errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0:
		return "expired"
	default:
		return "invalid"
	}
}

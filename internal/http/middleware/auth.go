package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SubjectLocalKey is the key used to store the authenticated subject id in
// Fiber's context locals.
const SubjectLocalKey = "subject_id"

var errNoSubject = errors.New("token has no subject")

// TokenVerifier validates HS256 bearer tokens and extracts the subject id.
// The service only verifies tokens issued elsewhere; it is not an identity
// provider.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates the raw token, returning the subject claim.
func (v *TokenVerifier) Verify(raw string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}

// RequireAuth rejects requests without a valid bearer credential and stores
// the subject id in locals for handlers.
func RequireAuth(v *TokenVerifier, unauthenticated fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := extractBearer(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return unauthenticated(c)
		}
		subject, err := v.Verify(raw)
		if err != nil {
			return unauthenticated(c)
		}
		c.Locals(SubjectLocalKey, subject)
		return c.Next()
	}
}

// SubjectFromCtx extracts the subject id stored by RequireAuth.
func SubjectFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(SubjectLocalKey).(string); ok {
		return s
	}
	return ""
}

func extractBearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

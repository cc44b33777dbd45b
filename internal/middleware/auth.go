package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"

	"tweetrouter/internal/config"
)

// SubjectKey is the Locals key holding the authenticated admin subject.
const SubjectKey = "admin_subject"

// TokenVerifier verifies a raw OIDC ID token. *oidc.IDTokenVerifier satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// AdminAuth guards admin routes with a bearer credential.
type AdminAuth struct {
	verifier TokenVerifier
	token    string
}

// NewAdminAuth builds the admin guard from configuration. With OIDC_ISSUER set,
// bearer tokens are verified as ID tokens issued to OIDC_CLIENT_ID. Otherwise a
// non-empty ADMIN_TOKEN must be presented verbatim. With neither, the guard
// lets every request through.
func NewAdminAuth(ctx context.Context, cfg *config.Config) (*AdminAuth, error) {
	if cfg.OIDCIssuer != "" {
		provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
		if err != nil {
			return nil, err
		}
		verifier := provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})
		return &AdminAuth{verifier: verifier}, nil
	}
	if cfg.AdminToken == "" {
		slog.Warn("admin routes are unauthenticated; set OIDC_ISSUER or ADMIN_TOKEN to protect them")
	}
	return &AdminAuth{token: cfg.AdminToken}, nil
}

// NewAdminAuthWith builds the admin guard from an explicit verifier or static
// token. A nil verifier and empty token leave admin routes open.
func NewAdminAuthWith(verifier TokenVerifier, token string) *AdminAuth {
	return &AdminAuth{verifier: verifier, token: token}
}

// Require rejects requests without a valid admin credential.
func (m *AdminAuth) Require(c fiber.Ctx) error {
	if m.verifier == nil && m.token == "" {
		return c.Next()
	}

	raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return unauthorized(c)
	}

	if m.verifier != nil {
		idToken, err := m.verifier.Verify(c.Context(), raw)
		if err != nil {
			slog.Debug("rejected admin token", "error", err)
			return unauthorized(c)
		}
		c.Locals(SubjectKey, idToken.Subject)
		return c.Next()
	}

	if subtle.ConstantTimeCompare([]byte(raw), []byte(m.token)) != 1 {
		return unauthorized(c)
	}
	c.Locals(SubjectKey, "admin")
	return c.Next()
}

// bearerToken extracts the credential from an "Authorization: Bearer x" header.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status": "error",
		"error":  "unauthorized",
	})
}

package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/user"
	"github.com/carlosapgomes/eda-triage/internal/admin"
)

// ErrInvalidSignature signals an HMAC signature mismatch.
var ErrInvalidSignature = errors.New("invalid signature")

// verifySignature checks header (an "x-signature" value of the form
// "sha256=<hex>" or bare hex) against HMAC-SHA256(secret, body), generalized
// from pkg/api/auth.go's header-extraction idiom to a constant-time MAC
// check.
func verifySignature(secret []byte, body []byte, header string) error {
	provided := strings.TrimPrefix(header, "sha256=")
	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expectedMAC := mac.Sum(nil)

	if subtle.ConstantTimeCompare(providedMAC, expectedMAC) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// requireAdminToken is echo middleware enforcing the bearer-token widget/admin
// auth: a valid, unexpired, unrevoked token whose owning user has role=admin.
func requireAdminToken(client *ent.Client, auth *admin.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			userID, err := auth.VerifyToken(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			u, err := client.User.Get(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			if u.Role != user.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}

			c.Set("user_id", u.ID)
			return next(c)
		}
	}
}

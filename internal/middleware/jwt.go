package middleware // middleware provides reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT parsing and validation
	"github.com/labstack/echo/v4"  // Echo framework

	"github.com/Whizard545/roomsync-prod/internal/model"
)

// principalKey is the context key under which JWTAuth stores the
// authenticated principal.
const principalKey = "principal"

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's principal into the request context.
// The middleware establishes identity only; whether that identity may
// perform an operation is decided by the authorization gate inside
// each handler. Protected routes should wrap themselves with this so
// handlers can call PrincipalFrom(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			userID := claimUint64(claims["sub"])
			email, _ := claims["email"].(string)
			if userID == 0 || email == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(principalKey, model.AuthenticatedPrincipal(userID, email))
			return next(c)
		}
	}
}

// PrincipalFrom extracts the authenticated principal stored by JWTAuth.
// The second return is false when no principal is present (route not
// wrapped, or middleware bypassed).
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	if !ok || p.IsZero() {
		return model.Principal{}, false
	}
	return p, true
}

// claimUint64 converts the numeric JWT subject claim, which arrives as
// a float64 after JSON decoding, into a user id.
func claimUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0
		}
		return uint64(n)
	case uint64:
		return n
	case int64:
		if n < 0 {
			return 0
		}
		return uint64(n)
	}
	return 0
}

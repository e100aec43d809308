package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mantty/host-api/internal/services"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
)

const principalKey = "principal"

// Principal is the authenticated caller taken from a validated access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
}

// TokenValidator is satisfied by *services.JWTService.
type TokenValidator interface {
	Validate(token string) (*services.Claims, error)
}

// Auth requires a bearer token. Event-stream requests may pass it as the
// access_token query parameter since EventSource cannot set headers.
func Auth(tokens TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		raw, msg := bearerToken(c)
		if raw == "" {
			unauthorized(c, msg)
			return
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		userID, _ := claims.UserID()

		c.Set(principalKey, Principal{UserID: userID, Email: claims.Email})
		c.Next()
	}
}

func bearerToken(c *drift.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if isEventStream(c.Request) {
			if token := c.QueryParam("access_token"); token != "" {
				return token, ""
			}
		}
		return "", "missing authorization header"
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid authorization header format"
	}
	return strings.TrimSpace(token), ""
}

func isEventStream(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func unauthorized(c *drift.Context, msg string) {
	_ = c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: msg,
		Kind:  string(apperror.KindNotAuthorized),
	})
	c.Abort()
}

// GetPrincipal returns the caller set by Auth.
func GetPrincipal(c *drift.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func GetUserID(c *drift.Context) uuid.UUID {
	p, _ := GetPrincipal(c)
	return p.UserID
}

func GetUserEmail(c *drift.Context) string {
	p, _ := GetPrincipal(c)
	return p.Email
}

package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

const viewerLocal = "viewer"

// Claims are the bearer token claims the dashboard reads.
type Claims struct {
	jwt.RegisteredClaims
	ID                string   `json:"id"`
	Username          string   `json:"username"`
	Role              string   `json:"role"`
	BusinessPartnerID string   `json:"business_partner_id,omitempty"`
	Regions           []string `json:"regions,omitempty"`
	DashboardTitle    string   `json:"dashboard_title,omitempty"`
}

// Viewer converts the claims into the dashboard's viewer context. The id claim
// wins over the registered subject.
func (c Claims) Viewer() dashboard.ViewerContext {
	id := c.ID
	if id == "" {
		id = c.Subject
	}
	return dashboard.ViewerContext{
		UserID:            id,
		Username:          c.Username,
		Role:              c.Role,
		BusinessPartnerID: c.BusinessPartnerID,
		Regions:           append([]string(nil), c.Regions...),
		DashboardTitle:    c.DashboardTitle,
	}
}

// IssueToken signs an HS256 token carrying the viewer's claims.
func IssueToken(viewer dashboard.ViewerContext, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  viewer.UserID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		ID:                viewer.UserID,
		Username:          viewer.Username,
		Role:              viewer.Role,
		BusinessPartnerID: viewer.BusinessPartnerID,
		Regions:           viewer.Regions,
		DashboardTitle:    viewer.DashboardTitle,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(token, secret string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// AuthMiddleware validates the bearer token and stores the viewer on the
// request locals and the user context.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return UnauthorizedError("Missing auth token")
		}
		claims, err := ParseToken(token, secret)
		if err != nil {
			return UnauthorizedError("Invalid or expired token")
		}
		viewer := claims.Viewer()
		if viewer.UserID == "" {
			return UnauthorizedError("Token has no user id")
		}
		SetViewer(c, viewer)
		return c.Next()
	}
}

// bearerToken reads the Authorization header. EventSource and websocket
// clients cannot set headers, so the access_token query parameter is accepted
// as a fallback.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return c.Query("access_token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAdmin rejects viewers without the administrator role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer, ok := GetViewer(c)
		if !ok {
			return UnauthorizedError("Missing auth token")
		}
		if !viewer.IsAdmin() {
			return ForbiddenError("Admin access required")
		}
		return c.Next()
	}
}

// SetViewer attaches the viewer to the request.
func SetViewer(c *fiber.Ctx, viewer dashboard.ViewerContext) {
	c.Locals(viewerLocal, viewer)
	c.SetUserContext(dashboard.ContextWithViewer(c.UserContext(), viewer))
}

// GetViewer extracts the viewer stored by AuthMiddleware.
func GetViewer(c *fiber.Ctx) (dashboard.ViewerContext, bool) {
	viewer, ok := c.Locals(viewerLocal).(dashboard.ViewerContext)
	return viewer, ok
}

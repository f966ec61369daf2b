package middleware

// identity.go holds the request identity helpers shared by the middleware
// and the handlers.  The authenticated principal is stored once in the
// echo context; callers without one are guests.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/model"
)

const principalKey = "principal"

// SetPrincipal attaches p to the request.
func SetPrincipal(c echo.Context, p model.Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.ID)
	c.Set("role", string(p.Role))
}

// PrincipalFrom returns the request principal, or a guest when the request
// is unauthenticated.
func PrincipalFrom(c echo.Context) model.Principal {
	if p, ok := c.Get(principalKey).(model.Principal); ok {
		return p
	}
	return model.Principal{Role: model.RoleGuest}
}

// currentUserID is the rate-limit identity: the user id or "anon".
func currentUserID(c echo.Context) string {
	if p := PrincipalFrom(c); p.Authenticated() {
		return p.ID
	}
	return "anon"
}

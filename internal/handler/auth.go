package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/middleware"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/service"
)

// AuthHandler serves sign-up, sign-in, token rotation and the profile.
type AuthHandler struct {
	Accounts *service.Accounts
}

func NewAuthHandler(a *service.Accounts) *AuthHandler {
	return &AuthHandler{Accounts: a}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type updateMeReq struct {
	Name string `json:"name"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

func pairResp(p service.TokenPair) authResp {
	return authResp{
		User:    p.User,
		Access:  tokenPart{Token: p.Access.Token, Expires: p.Access.Exp},
		Refresh: tokenPart{Token: p.Refresh.Raw, Expires: p.Refresh.Exp}, // raw back to client
	}
}

// Register: create the account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	pair, err := h.Accounts.Register(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, pairResp(pair))
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	pair, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pairResp(pair))
}

// Refresh: revoke the presented refresh token and issue a rotated pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	pair, err := h.Accounts.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pairResp(pair))
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)
	user := middleware.PrincipalFrom(c)

	ctx, cancel := withTimeout(c)
	defer cancel()

	switch {
	case raw != "":
		if err := h.Accounts.Logout(ctx, raw); err != nil {
			return respondError(c, err)
		}
	case user.Authenticated():
		if err := h.Accounts.LogoutAll(ctx, user); err != nil {
			return respondError(c, err)
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the stored account of the caller.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Accounts.Me(ctx, middleware.PrincipalFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe changes the display name and returns a fresh access token that
// carries it.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, access, err := h.Accounts.UpdateName(ctx, middleware.PrincipalFrom(c), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":   u,
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wowcampus/auth-api/internal/middleware"
	"github.com/wowcampus/auth-api/internal/models"
	"github.com/wowcampus/auth-api/internal/service"
	"github.com/wowcampus/auth-api/internal/token"
	appErrors "github.com/wowcampus/auth-api/pkg/errors"
	"github.com/wowcampus/auth-api/pkg/response"
)

// Cookie names for the browser transport. Both carry the same values
// as the JSON body; either transport works alone.
const (
	AccessTokenCookie  = middleware.AccessTokenCookie
	RefreshTokenCookie = "wowcampus_refresh_token"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service       *service.AuthService
	secureCookies bool
}

// NewAuthHandler creates a new handler. secureCookies should be true
// everywhere TLS terminates in front of the service.
func NewAuthHandler(svc *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: svc, secureCookies: secureCookies}
}

// Register godoc
// @Summary Register a new account
// @Description Create an account and log it in immediately
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookies(c, res, false)
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookies(c, res, req.RememberMe)
	response.JSON(c, http.StatusOK, res)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange refresh token for new access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshRequest false "Refresh payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	// Body is optional; browser clients rely on the cookie alone.
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie
		}
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, AccessTokenCookie, res.AccessToken, int(token.AccessTokenTTL.Seconds()))
	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Logout current session
// @Description Blacklist the access token and revoke the refresh token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LogoutRequest false "Logout payload"
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if req.AccessToken == "" {
		req.AccessToken = bearerToken(c)
	}
	if req.AccessToken == "" {
		if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
			req.AccessToken = cookie
		}
	}
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie
		}
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	h.service.Logout(c.Request.Context(), req)

	h.clearSessionCookies(c)
	response.JSON(c, http.StatusOK, gin.H{"success": true})
}

// RevokeSessions godoc
// @Summary Force-revoke a user's sessions
// @Description Revoke every refresh token issued to the user
// @Tags Authentication
// @Produce json
// @Param id path integer true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/users/{id}/sessions [delete]
func (h *AuthHandler) RevokeSessions(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid user id"))
		return
	}

	if err := h.service.RevokeUserSessions(c.Request.Context(), id, c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"success": true})
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user's info derived from claims
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, claims.UserInfo())
}

// setSessionCookies mirrors the issued pair into cookies. The refresh
// cookie lives as long as the token it carries.
func (h *AuthHandler) setSessionCookies(c *gin.Context, res *models.AuthResponse, rememberMe bool) {
	h.setCookie(c, AccessTokenCookie, res.AccessToken, int(token.AccessTokenTTL.Seconds()))

	refreshTTL := token.RefreshTokenTTL
	if rememberMe {
		refreshTTL = token.RememberMeRefreshTTL
	}
	h.setCookie(c, RefreshTokenCookie, res.RefreshToken, int(refreshTTL.Seconds()))
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.secureCookies, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	h.setCookie(c, AccessTokenCookie, "", -1)
	h.setCookie(c, RefreshTokenCookie, "", -1)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

package handler

import (
	"errors"
	"net/http"
	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService    *service.AuthService
	sessionService *service.SessionService
}

func NewAuthHandler(as *service.AuthService, ss *service.SessionService) *AuthHandler {
	return &AuthHandler{authService: as, sessionService: ss}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var dto domain.RegisterUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// POST /auth/login
//
// Issues a bearer token for API clients and a session cookie for browsers in
// the same response; the two credentials are independent.
func (h *AuthHandler) Login(c *gin.Context) {
	var dto domain.LoginUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, resp, err := h.authService.Login(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	sessionID, err := h.sessionService.Create(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.SetCookie(middleware.SessionCookieName, sessionID,
		int(h.sessionService.TTL().Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, resp)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.SessionCookieName); err == nil && sessionID != "" {
		if err := h.sessionService.Destroy(c.Request.Context(), sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not destroy session"})
			return
		}
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}

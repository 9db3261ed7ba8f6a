package authhandler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tangent-server/internal/domain/auth"
	"tangent-server/internal/domain/session"
	"tangent-server/internal/domain/user"
	"tangent-server/internal/interfaces/httpserver/middlewares"
	"tangent-server/internal/interfaces/httpserver/responses"
	"tangent-server/internal/utils/apperrors"
)

// AuthHandler handles registration and token endpoints.
type AuthHandler struct {
	authService *auth.Service
	sessions    *session.Manager
}

func NewAuthHandler(authService *auth.Service, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

type SignUpRequest struct {
	Email    string            `json:"email" binding:"required"`
	Password string            `json:"password" binding:"required"`
	Profile  map[string]string `json:"profile"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID      string            `json:"id"`
	Email   string            `json:"email"`
	Profile map[string]string `json:"profile,omitempty"`
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:      u.ID.String(),
		Email:   u.Email,
		Profile: u.Profile,
	}
}

// SignUp registers a new account.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, apperrors.ErrorTypeValidation, "invalid request body")
		return
	}

	created, err := h.authService.SignUp(c.Request.Context(), req.Email, req.Password, req.Profile)
	if err != nil {
		responses.HandleError(c, err, "failed to sign up")
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(created))
}

// SignIn exchanges credentials for a bearer token.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, apperrors.ErrorTypeValidation, "invalid request body")
		return
	}

	session, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		responses.HandleError(c, err, "failed to sign in")
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Unix(),
		User:      newUserResponse(session.User),
	})
}

// SignOut discards the caller's session state. Tokens are stateless, so the
// client simply discards its copy.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if userID, ok := middlewares.UserIDFromContext(c); ok {
		h.sessions.Drop(userID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

// Me returns the account behind the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		responses.HandleNewError(c, apperrors.ErrorTypeUnauthorized, "authentication required")
		return
	}

	u, err := h.authService.CurrentUser(c.Request.Context(), token)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve user")
		return
	}

	c.JSON(http.StatusOK, newUserResponse(u))
}

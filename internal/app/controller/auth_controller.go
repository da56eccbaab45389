package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// User-facing messages of the login and reset flows
const (
	MsgLoginFailed       = "Failed Login"
	MsgLoggedIn          = "You are now logged in!"
	MsgLoggedOut         = "You are now logged out!"
	MsgAccountNotFound   = "No account with that email exists."
	MsgResetEmailSent    = "You have been emailed a password reset link."
	MsgResetInvalid      = "Password reset is invalid or has expired."
	MsgPasswordsMismatch = "Passwords do not match!"
	MsgPasswordReset     = "Nice! Your password has been reset! You are now logged in!"
	MsgPasswordTooShort  = "Please choose a password of at least 6 characters"
)

const resetPasswordsKey = "reset_passwords"

// APIBasePath prefixes every versioned route
const APIBasePath = "/api/v1"

const minPasswordLength = 6

type AuthController struct {
	authService          service.AuthService
	passwordResetService service.PasswordResetService
	baseURL              string
}

// NewAuthController builds the controller. baseURL is the site that serves the
// reset page. When it is empty, reset links point at this API's own reset route
// on the scheme and host of the incoming request.
func NewAuthController(authService service.AuthService, passwordResetService service.PasswordResetService, baseURL string) *AuthController {
	return &AuthController{
		authService:          authService,
		passwordResetService: passwordResetService,
		baseURL:              baseURL,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries no binding rules. ConfirmedPasswords checks the
// pair itself so a mismatch is always the reported problem.
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password-confirm"`
}

func userPayload(user *model.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
	}
}

func (ctrl *AuthController) requestBaseURL(c *gin.Context) string {
	if ctrl.baseURL != "" {
		return ctrl.baseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + APIBasePath
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid registration details")
		return
	}

	user, tokens, err := ctrl.authService.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "That email is already registered")
			return
		}
		log.Error("Registration failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userPayload(user),
		"tokens":  tokens,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.FlashError(c, http.StatusBadRequest, apperrors.ValidationInvalidInput, MsgLoginFailed, "/login")
		return
	}

	user, tokens, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.FlashError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, MsgLoginFailed, "/login")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "login")
		return
	}

	apperrors.FlashSuccess(c, MsgLoggedIn, "/", gin.H{
		"user":   userPayload(user),
		"tokens": tokens,
	})
}

// Logout revokes the presented access token and, when sent, the refresh token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LogoutRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.authService.Logout(c.Request.Context(), middleware.GetAccessToken(c), req.RefreshToken); err != nil {
		log.Error("Logout failed", err, nil)
		apperrors.InternalError(c, "Failed to log out")
		return
	}

	apperrors.FlashSuccess(c, MsgLoggedOut, "/", nil)
}

// GetMe returns the current user and the stores they authored
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Oops you must be logged in to do that!")
		return
	}

	user, err := ctrl.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		apperrors.InternalError(c, "Failed to load user")
		return
	}

	stores := user.Stores
	if stores == nil {
		stores = []model.Store{}
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   userPayload(user),
		"stores": stores,
	})
}

// Forgot starts a password reset and emails the link
// POST /api/v1/account/forgot
func (ctrl *AuthController) Forgot(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.FlashError(c, http.StatusBadRequest, apperrors.ValidationInvalidInput, MsgAccountNotFound, "/login")
		return
	}

	err := ctrl.passwordResetService.RequestReset(c.Request.Context(), req.Email, ctrl.requestBaseURL(c))
	switch {
	case err == nil:
		apperrors.FlashSuccess(c, MsgResetEmailSent, "/login", nil)
	case errors.Is(err, service.ErrAccountNotFound):
		apperrors.FlashError(c, http.StatusNotFound, apperrors.ResetAccountNotFound, MsgAccountNotFound, "/login")
	case errors.Is(err, service.ErrMailDispatch):
		log.Error("Password reset mail failed", err, nil)
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.ResetMailFailed, "Failed to send password reset email")
	default:
		log.Error("Password reset request failed", err, nil)
		apperrors.InternalError(c, "Failed to start password reset")
	}
}

// ShowReset reports whether a reset link can still be used
// GET /api/v1/account/reset/:token
func (ctrl *AuthController) ShowReset(c *gin.Context) {
	token := c.Param("token")

	user, err := ctrl.passwordResetService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		ctrl.respondResetError(c, err, token)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"email": user.Email,
	})
}

// ConfirmedPasswords rejects a reset submission whose confirmation differs
// before the token is looked at
func (ctrl *AuthController) ConfirmedPasswords(c *gin.Context) {
	redirect := resetPath(c.Param("token"))

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.FlashError(c, http.StatusBadRequest, apperrors.ValidationInvalidInput, MsgPasswordsMismatch, redirect)
		return
	}
	if req.Password != req.PasswordConfirm {
		apperrors.FlashError(c, http.StatusBadRequest, apperrors.ResetPasswordMismatch, MsgPasswordsMismatch, redirect)
		return
	}
	if len(req.Password) < minPasswordLength {
		apperrors.FlashError(c, http.StatusBadRequest, apperrors.ValidationInvalidInput, MsgPasswordTooShort, redirect)
		return
	}

	c.Set(resetPasswordsKey, req)
	c.Next()
}

// UpdatePassword commits the new password and logs the user in
// POST /api/v1/account/reset/:token
func (ctrl *AuthController) UpdatePassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	token := c.Param("token")

	v, ok := c.Get(resetPasswordsKey)
	req, _ := v.(ResetPasswordRequest)
	if !ok {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.FlashError(c, http.StatusBadRequest, apperrors.ValidationInvalidInput, MsgPasswordsMismatch, resetPath(token))
			return
		}
	}

	user, err := ctrl.passwordResetService.ResetPassword(c.Request.Context(), token, req.Password, req.PasswordConfirm)
	if err != nil {
		ctrl.respondResetError(c, err, token)
		return
	}

	tokens, err := ctrl.authService.IssueSession(user)
	if err != nil {
		log.Error("Failed to issue session after reset", err, map[string]interface{}{
			"user_id": user.ID,
		})
		apperrors.InternalError(c, "Failed to log in")
		return
	}

	apperrors.FlashSuccess(c, MsgPasswordReset, "/", gin.H{
		"user":   userPayload(user),
		"tokens": tokens,
	})
}

func (ctrl *AuthController) respondResetError(c *gin.Context, err error, token string) {
	switch {
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		apperrors.FlashError(c, http.StatusBadRequest, apperrors.ResetTokenInvalid, MsgResetInvalid, "/login")
	case errors.Is(err, service.ErrPasswordMismatch):
		apperrors.FlashError(c, http.StatusBadRequest, apperrors.ResetPasswordMismatch, MsgPasswordsMismatch, resetPath(token))
	default:
		middleware.GetLoggerFromContext(c).Error("Password reset failed", err, nil)
		apperrors.InternalError(c, "Failed to reset password")
	}
}

func resetPath(token string) string {
	return "/account/reset/" + token
}

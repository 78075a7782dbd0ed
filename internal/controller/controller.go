package controller

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ndenisov/authd/internal/models"
	"github.com/ndenisov/authd/internal/service"
	"github.com/ndenisov/authd/internal/util"
)

const UserIDContextKey = "userID"

type Controller struct {
	zapLogger   *zap.SugaredLogger
	authService *service.AuthService
	oauthConfig *util.OAuthConfig
}

func NewController(logger *zap.SugaredLogger, authService *service.AuthService, oauthConfig *util.OAuthConfig) *Controller {
	return &Controller{
		zapLogger:   logger,
		authService: authService,
		oauthConfig: oauthConfig,
	}
}

// RegisterRoutes wires the auth surface onto the /api group. authMW guards
// the routes that require a live bearer session.
func RegisterRoutes(g *echo.Group, c *Controller, authMW echo.MiddlewareFunc) {
	g.GET("/ping", c.CheckServer)

	auth := g.Group("/auth")
	auth.POST("/login", c.Login)
	auth.POST("/registration", c.Registration)
	auth.POST("/refresh", c.RefreshToken)
	auth.POST("/send-verification-code", c.SendVerificationCode)
	auth.POST("/reset-password", c.ResetPassword)
	auth.GET("/oauth", c.OAuthRedirect)
	auth.GET("/oauth/callback", c.OAuthCallback)

	auth.POST("/logout", c.Logout, authMW)
	auth.POST("/logout-all", c.LogoutAll, authMW)
	auth.POST("/me", c.WhoAmI, authMW)
}

// Fingerprint derives the device identity from request metadata. It is an
// opaque pair; proxies and NAT can change it between requests.
func Fingerprint(c echo.Context) models.Fingerprint {
	return models.Fingerprint{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

// (POST /api/auth/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid request body")
	}

	pair, err := c.authService.Login(ctx.Request().Context(), req.Login, req.Password, Fingerprint(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/registration).
func (c *Controller) Registration(ctx echo.Context) error {
	var req models.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid request body")
	}

	user, err := c.authService.Register(ctx.Request().Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   user,
	})
}

// (POST /api/auth/refresh).
func (c *Controller) RefreshToken(ctx echo.Context) error {
	var req models.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid request body")
	}

	accessToken, err := c.authService.RefreshToken(ctx.Request().Context(), req.RefreshToken, Fingerprint(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.AccessTokenResponse{AccessToken: *accessToken})
}

// (POST /api/auth/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	userID, ok := ctx.Get(UserIDContextKey).(string)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := c.authService.Logout(ctx.Request().Context(), userID, Fingerprint(ctx)); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "logged out of this device"})
}

// (POST /api/auth/logout-all).
func (c *Controller) LogoutAll(ctx echo.Context) error {
	userID, ok := ctx.Get(UserIDContextKey).(string)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := c.authService.LogoutAll(ctx.Request().Context(), userID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "logged out from all devices"})
}

// (POST /api/auth/me).
func (c *Controller) WhoAmI(ctx echo.Context) error {
	userID, ok := ctx.Get(UserIDContextKey).(string)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	identity, err := c.authService.WhoAmI(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, identity)
}

// (POST /api/auth/send-verification-code).
func (c *Controller) SendVerificationCode(ctx echo.Context) error {
	var req models.SendVerificationCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.authService.SendVerificationCode(ctx.Request().Context(), req.Email); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "code sent"})
}

// (POST /api/auth/reset-password).
func (c *Controller) ResetPassword(ctx echo.Context) error {
	var req models.ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.authService.ResetPassword(ctx.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "password update"})
}

// (GET /api/auth/oauth) redirects to the external identity provider.
func (c *Controller) OAuthRedirect(ctx echo.Context) error {
	if c.oauthConfig.AuthorizeURL == "" {
		return echo.NewHTTPError(http.StatusNotImplemented, "external identity provider is not configured")
	}

	q := url.Values{}
	q.Set("client_id", c.oauthConfig.ClientID)
	q.Set("redirect_uri", c.oauthConfig.RedirectURL)
	q.Set("response_type", "code")
	q.Set("state", uuid.NewString())

	return ctx.Redirect(http.StatusFound, c.oauthConfig.AuthorizeURL+"?"+q.Encode())
}

// (GET /api/auth/oauth/callback) echoes the provider payload. Exchanging the
// code for provider tokens is the provider integration's job, not this
// core's.
func (c *Controller) OAuthCallback(ctx echo.Context) error {
	code := ctx.QueryParam("code")
	if code == "" {
		return ctx.JSON(http.StatusOK, models.StatusResponse{Status: "fail", Message: "no user from provider"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "user information from provider",
		"code":    code,
		"state":   ctx.QueryParam("state"),
	})
}

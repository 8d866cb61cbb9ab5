package auth

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/user"
	"github.com/asterhq/aster/pkg/auth"
	"github.com/asterhq/aster/pkg/mail"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers authentication routes
func Register(g *echo.Group) {
	g.POST("/register", SignUp)
	g.POST("/login", Login)
	g.GET("/captcha", GetCaptcha)
	g.GET("/check-login/:login", CheckLogin)
	g.POST("/send-code", SendCode)
	g.POST("/recovery-password", RecoverPassword)
}

// SignUp creates a user account and logs it in
func SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "auth_handler.SignUp")
	defer span.End()

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, captcha, err := ectoinject.GetContext[*auth.Captcha](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get captcha service")
	}
	if !captcha.Verify(ctx, req.CaptchaID, req.CaptchaAnswer) {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid captcha")
	}

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	existing, err := users.GetByLogin(ctx, req.Login)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to check login")
	}
	if existing != nil {
		return httperror.NewHTTPError(http.StatusConflict, "login already taken")
	}

	ctx, hasher, err := ectoinject.GetContext[*auth.Hasher](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get hasher")
	}
	hash, err := hasher.Hash(req.Password)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to hash password")
	}

	created, err := users.Create(ctx, req.Login, hash, req.Email)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create user")
	}

	return issueSession(c, ctx, users, created, http.StatusCreated)
}

// Login authenticates a user and rotates its session
func Login(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "auth_handler.Login")
	defer span.End()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	account, err := users.GetByLogin(ctx, req.Login)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}

	ctx, hasher, err := ectoinject.GetContext[*auth.Hasher](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get hasher")
	}
	if account == nil || !hasher.Verify(account.Pass, req.Password) {
		return httperror.NewHTTPError(http.StatusUnauthorized, "invalid login or password")
	}

	return issueSession(c, ctx, users, account, http.StatusOK)
}

// issueSession rotates the user's session id and returns a fresh token.
// Rotation invalidates every previously issued token for the user.
func issueSession(c echo.Context, ctx context.Context, users *user.Repository, account *models.User, status int) error {
	sessionID := uuid.New().String()
	if err := users.UpdateSessionID(ctx, account.ID, sessionID); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update session")
	}
	account.SessionID = &sessionID

	ctx, tokens, err := ectoinject.GetContext[*auth.TokenService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get token service")
	}
	token, err := tokens.Issue(account, sessionID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}

	return c.JSON(status, models.LoginResponse{Success: true, Token: token, User: *account})
}

// GetCaptcha issues a captcha challenge as a base64 PNG
func GetCaptcha(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "auth_handler.GetCaptcha")
	defer span.End()

	ctx, captcha, err := ectoinject.GetContext[*auth.Captcha](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get captcha service")
	}

	id, image, err := captcha.Generate(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to generate captcha")
	}

	return c.JSON(http.StatusOK, map[string]string{"id": id, "image": image})
}

// CheckLogin reports whether a login is still available
func CheckLogin(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "auth_handler.CheckLogin")
	defer span.End()

	login := c.Param("login")
	if login == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "login is required")
	}

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	existing, err := users.GetByLogin(ctx, login)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to check login")
	}

	return c.JSON(http.StatusOK, map[string]bool{"available": existing == nil})
}

// SendCode mails a password-recovery code to a registered address
func SendCode(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "auth_handler.SendCode")
	defer span.End()

	var req models.SendCodeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	account, err := users.GetByMail(ctx, req.Mail)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if account == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "user not found")
	}

	ctx, recovery, err := ectoinject.GetContext[*auth.Recovery](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get recovery service")
	}
	code, err := recovery.IssueCode(ctx, req.Mail)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to issue code")
	}

	ctx, mailer, err := ectoinject.GetContext[*mail.Mailer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get mailer")
	}
	if err := mailer.SendRecoveryCode(req.Mail, code); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to send code")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// RecoverPassword resets the password when the mailed code matches
func RecoverPassword(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "auth_handler.RecoverPassword")
	defer span.End()

	var req models.RecoveryPasswordRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, recovery, err := ectoinject.GetContext[*auth.Recovery](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get recovery service")
	}
	ok, err := recovery.VerifyCode(ctx, req.Mail, req.Code)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to verify code")
	}
	if !ok {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid or expired code")
	}

	ctx, hasher, err := ectoinject.GetContext[*auth.Hasher](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get hasher")
	}
	hash, err := hasher.Hash(req.Password)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to hash password")
	}

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	if err := users.UpdatePassword(ctx, req.Mail, hash); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update password")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

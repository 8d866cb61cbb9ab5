package middleware

import (
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/internal/repositories/user"
	"github.com/asterhq/aster/pkg/auth"
	"github.com/asterhq/aster/pkg/context"
	"github.com/labstack/echo/v4"
)

// HeaderIsAuth flags that the request authenticates; the token itself
// travels in Authorization: Bearer. Requests without the flag pass
// through anonymously; protected routes then reject on the missing user.
const HeaderIsAuth = "IsAuth"

// Authentication validates the bearer token on flagged requests and loads
// the user onto the request context. A token bound to a stale session is
// rejected: only the most recent login per user stays valid.
func Authentication(tokens *auth.TokenService, users user.UserRepository, logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(HeaderIsAuth) == "" {
				return next(c)
			}

			token := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if token == "" {
				return httperror.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				return httperror.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()

			account, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				return httperror.NewHTTPError(http.StatusInternalServerError, "failed to load user")
			}
			if account == nil || account.SessionID == nil || *account.SessionID != claims.SessionID {
				logger.WithContext(ctx).WithFields(map[string]any{
					"user_id": claims.UserID,
				}).Warn("rejected token with stale session")
				return httperror.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			ctx = context.SetUserID(ctx, account.ID)
			ctx = context.SetUserLogin(ctx, account.Login)
			ctx = context.SetUserRole(ctx, account.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if context.GetUserID(c.Request().Context()) == 0 {
				return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

// RequireRole rejects requests whose user holds none of the named roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if context.GetUserID(ctx) == 0 {
				return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			if !ectolinq.Contains(roles, context.GetUserRole(ctx)) {
				return httperror.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}

			return next(c)
		}
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/auth"
	appctx "github.com/asterhq/aster/pkg/context"
	"github.com/asterhq/aster/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	byID map[int]*models.User
}

func (f *fakeUsers) Create(ctx context.Context, login, passHash, mail string) (*models.User, error) {
	return nil, nil
}
func (f *fakeUsers) GetByID(ctx context.Context, id int) (*models.User, error) {
	return f.byID[id], nil
}
func (f *fakeUsers) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return nil, nil
}
func (f *fakeUsers) GetByMail(ctx context.Context, mail string) (*models.User, error) {
	return nil, nil
}
func (f *fakeUsers) UpdateSessionID(ctx context.Context, id int, sessionID string) error { return nil }
func (f *fakeUsers) UpdatePassword(ctx context.Context, mail, passHash string) error     { return nil }
func (f *fakeUsers) UpdateAvatar(ctx context.Context, id int, avatar []byte) error       { return nil }
func (f *fakeUsers) SetRole(ctx context.Context, userID int, name string) error          { return nil }
func (f *fakeUsers) RemoveRole(ctx context.Context, userID int) error                    { return nil }
func (f *fakeUsers) Delete(ctx context.Context, id int) error                            { return nil }

func TestAuthentication(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	tokens := auth.NewTokenService("top-secret", time.Hour)

	sessionID := "session-1"
	account := &models.User{ID: 7, Login: "ramsey", Role: "admin", SessionID: &sessionID}
	users := &fakeUsers{byID: map[int]*models.User{7: account}}

	mw := Authentication(tokens, users, logger)

	call := func(headers map[string]string) (int, int, string) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var userID int
		var role string
		handler := mw(func(c echo.Context) error {
			userID = appctx.GetUserID(c.Request().Context())
			role = appctx.GetUserRole(c.Request().Context())
			return c.NoContent(http.StatusOK)
		})

		status := http.StatusOK
		if err := handler(c); err != nil {
			if he, ok := err.(*httperror.HTTPError); ok {
				status = he.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		return status, userID, role
	}

	t.Run("no flag passes through anonymously", func(t *testing.T) {
		status, userID, _ := call(nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 0, userID)
	})

	t.Run("authorization without the flag stays anonymous", func(t *testing.T) {
		token, err := tokens.Issue(account, sessionID)
		require.NoError(t, err)

		status, userID, _ := call(map[string]string{
			echo.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 0, userID)
	})

	t.Run("flagged request with a valid bearer token authenticates", func(t *testing.T) {
		token, err := tokens.Issue(account, sessionID)
		require.NoError(t, err)

		status, userID, role := call(map[string]string{
			HeaderIsAuth:             "true",
			echo.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 7, userID)
		assert.Equal(t, "admin", role)
	})

	t.Run("flagged request without a bearer token is rejected", func(t *testing.T) {
		status, _, _ := call(map[string]string{HeaderIsAuth: "true"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("token bound to a stale session is rejected", func(t *testing.T) {
		token, err := tokens.Issue(account, "session-0")
		require.NoError(t, err)

		status, _, _ := call(map[string]string{
			HeaderIsAuth:             "true",
			echo.HeaderAuthorization: "Bearer " + token,
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

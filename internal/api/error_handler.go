package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ndenisov/authd/internal/service"
	"github.com/ndenisov/authd/internal/storage"
	"github.com/ndenisov/authd/internal/util"
)

func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var customErr util.MyResponseError
		if errors.As(err, &customErr) {
			if err := c.JSON(customErr.Status, map[string]string{"reason": customErr.Msg}); err != nil {
				log.Errorw("failed to write json response", "error", err)
			}
			return
		}

		if status, ok := statusForError(err); ok {
			if err := c.JSON(status, map[string]string{"reason": err.Error()}); err != nil {
				log.Errorw("failed to write json response", "error", err)
			}
			return
		}

		he, ok := err.(*echo.HTTPError)
		if ok {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			if err := c.JSON(he.Code, map[string]string{"reason": fmt.Sprintf("%v", he.Message)}); err != nil {
				log.Errorw("failed to write json response", "error", err)
			}
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		c.JSON(http.StatusInternalServerError, map[string]string{"reason": "internal server error"})
	}
}

// statusForError maps the stable client-facing error kinds to HTTP statuses.
// Anything not listed here is an internal failure.
func statusForError(err error) (int, bool) {
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrAlreadyAuthenticated),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrInvalidVerificationCode),
		errors.Is(err, storage.ErrSessionNotFound),
		errors.Is(err, storage.ErrDuplicateUser):
		return http.StatusBadRequest, true
	}
	return 0, false
}

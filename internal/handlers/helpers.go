package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/logger"
	"boekhouden/internal/middleware"
)

const dateLayout = "2006-01-02"

// getActor returns the token subject set by AuthMiddleware.
func getActor(c *gin.Context) (string, error) {
	actor := c.GetString(middleware.ActorKey)
	if actor == "" {
		return "", apperrors.ErrUnauthorized
	}
	return actor, nil
}

// parseYearParam parses the :year path parameter.
func parseYearParam(c *gin.Context) (int, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 2999 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid year")
	}
	return year, nil
}

// parseDate accepts YYYY-MM-DD and the Belgian DD/MM/YYYY.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// bindError reports a request body or query that failed validation.
func bindError(err error) *apperrors.AppError {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

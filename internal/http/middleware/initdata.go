package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "github.com/open-builders/secret-santa-bot/internal/common/errors"
)

// UserCtxKey holds the initdata.User of an authenticated request.
const UserCtxKey = "user"

// InitData validates Telegram Mini Apps init-data and stores the parsed user
// in the context. It looks in the "X-Telegram-Init-Data" header, then the
// legacy "init_data" header, then the "init_data" query parameter.
//
// An empty token rejects every request with 500. expIn == 0 disables the
// expiration check.
func InitData(token string, expIn time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			Abort(c, apperrors.New(apperrors.ErrCodeInternal, "init-data validation is not configured"))
			return
		}

		raw := c.GetHeader("X-Telegram-Init-Data")
		if raw == "" {
			raw = c.GetHeader("init_data")
		}
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			Abort(c, apperrors.NewUnauthorizedError("missing init_data"))
			return
		}

		if err := initdata.Validate(raw, token, expIn); err != nil {
			Abort(c, apperrors.NewUnauthorizedError("invalid init_data"))
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			Abort(c, apperrors.New(apperrors.ErrCodeValidation, "invalid init_data format"))
			return
		}
		if parsed.User.ID == 0 {
			Abort(c, apperrors.NewUnauthorizedError("init_data carries no user"))
			return
		}

		c.Set(UserCtxKey, parsed.User)
		c.Next()
	}
}

// CurrentUser returns the user stored by InitData.
func CurrentUser(c *gin.Context) (initdata.User, bool) {
	v, ok := c.Get(UserCtxKey)
	if !ok {
		return initdata.User{}, false
	}
	u, ok := v.(initdata.User)
	return u, ok
}

// RequireAdmin lets through users accepted by isAdmin. It must run after
// InitData.
func RequireAdmin(isAdmin func(userID int64) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			Abort(c, apperrors.NewUnauthorizedError("Telegram init data required"))
			return
		}
		if !isAdmin(u.ID) {
			Abort(c, apperrors.NewForbiddenError("admin access required"))
			return
		}
		c.Next()
	}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success   bool                `json:"success"`
	Error     *apperrors.AppError `json:"error"`
	RequestID string              `json:"request_id,omitempty"`
}

// Abort writes err as an ErrorResponse with the matching status.
func Abort(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
	}
	if appErr.IsInternal() {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), ErrorResponse{
		Success:   false,
		Error:     appErr,
		RequestID: c.GetString(RequestIDCtxKey),
	})
}

package api

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/logger"
	"github.com/ougirez/boptest/internal/pkg/utils"
)

// RequestContextMiddleware tags the request context with a request id and
// logs each request once it is served.
func (svc *APIService) RequestContextMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		requestID := req.Header.Get(constants.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Response().Header().Set(constants.HeaderRequestID, requestID)

		reqCtx := logger.WithFields(req.Context(), "request_id", requestID, "method", req.Method, "path", req.URL.Path)
		ctx.SetRequest(req.WithContext(reqCtx))

		err := next(ctx)
		if err != nil {
			ctx.Error(err)
		}
		logger.Debugf(reqCtx, "served with status %d", ctx.Response().Status)
		return nil
	}
}

func (svc *APIService) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		raw := bearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
		if raw == "" {
			cookie, err := ctx.Cookie(constants.CookieKeyAuthToken)
			if err != nil || cookie.Value == "" {
				return constants.ErrMissingAuthCookie
			}
			raw = cookie.Value
		}

		token, err := utils.ParseAuthToken(raw)
		if err != nil {
			return err
		}

		ctx.Set(constants.CtxKeyAccountID, token.AccountID)
		ctx.Set(constants.CtxKeyAccountName, token.DisplayName)
		req := ctx.Request()
		ctx.SetRequest(req.WithContext(logger.WithFields(req.Context(), "account_id", token.AccountID)))

		return next(ctx)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

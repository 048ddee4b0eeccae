package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/logger"
)

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	msg := err.Error()
	code := http.StatusInternalServerError

	var coded *constants.CodedError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &coded):
		code = coded.Code()
	case errors.As(err, &httpErr):
		code = httpErr.Code
		msg = fmt.Sprint(httpErr.Message)
	}

	ctx := c.Request().Context()
	if code >= http.StatusInternalServerError {
		logger.Errorf(ctx, "%s %s: %s", c.Request().Method, c.Path(), err.Error())
	} else {
		logger.Debugf(ctx, "%s %s: %d %s", c.Request().Method, c.Path(), code, msg)
	}

	_ = c.JSON(code, domain.ErrorResponse{
		Message: msg,
		Code:    code,
	})
}

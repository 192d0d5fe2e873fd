package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Success { message: string }
type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Cause != nil {
			c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), he.Cause)
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	c.Logger().Errorf("unhandled error: %v", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bind と validate をまとめて行う
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// クエリの整数。空なら def
func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

// 空なら nil
func queryID(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// 操作した管理者のID（監査ログの actor）
func getUserIDFromContext(c echo.Context) (int64, bool) {
	admin, ok := middleware.AdminFrom(c)
	return admin.UserID, ok
}

// middleware.CartSession が入れたカートID
func getCartSessionID(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxCartSessionKey).(string)
	return id, ok && id != ""
}

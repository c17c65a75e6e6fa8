package handler

import (
	"net/http"

	"shopcart/internal/middleware"
	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// フォームの項目ごとのエラー（422）
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := usecase.AsValidationError(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: ve.Fields,
		})
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, false
	}

	return id, true
}

// AuthJWTが入れた値から購入者を組み立てる
func getCheckoutUser(c echo.Context) (usecase.CheckoutUser, bool) {
	id, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.CheckoutUser{}, false
	}
	email, _ := c.Get(middleware.CtxUserEmailKey).(string)
	return usecase.CheckoutUser{ID: id, Email: email}, true
}

func getCartSession(c echo.Context) string {
	s, _ := c.Get(middleware.CtxCartSessionKey).(string)
	return s
}

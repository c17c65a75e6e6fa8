package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CartSessionCookie = "cart_session"
	CartSessionHeader = "X-Cart-Session"

	CtxCartSessionKey = "cart_session" // string
)

// カートのセッショントークンを決めて context に入れる。
// cookie → ヘッダの順で読み、無い/不正なら新しく発行して cookie で返す。
func CartSession(secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if ck, err := c.Cookie(CartSessionCookie); err == nil {
				token = strings.TrimSpace(ck.Value)
			}
			if token == "" {
				token = strings.TrimSpace(c.Request().Header.Get(CartSessionHeader))
			}

			if _, err := uuid.Parse(token); err != nil {
				token = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     CartSessionCookie,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(30 * 24 * time.Hour),
				})
			}

			c.Response().Header().Set(CartSessionHeader, token)
			c.Set(CtxCartSessionKey, token)
			return next(c)
		}
	}
}

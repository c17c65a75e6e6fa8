package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// AuthJWTの後ろに置く。roleが許可リストに無ければ403
func RequireRole(allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			for _, r := range allowed {
				if role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorJSON(forbiddenMessage(allowed)))
		}
	}
}

// 管理画面（注文一覧・ステータス更新・監査ログ）用
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(RoleAdmin)
}

func forbiddenMessage(allowed []string) string {
	if len(allowed) == 1 && allowed[0] == RoleAdmin {
		return "admin only"
	}
	return "forbidden"
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがFARMERかどうかを確認します。

func FarmerRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//USERは拒否、FARMERだけ許可
			if role != "FARMER" {
				return c.JSON(http.StatusForbidden, errorJSON("farmer only"))
			}

			return next(c)
		}
	}
}

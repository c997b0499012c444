package middleware

import (
	"errors"
	"strings"

	"freshleap/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// OptionalAuthJWT はBearerがあれば検証してcontextに入れる。
// 無い・不正な場合は匿名のまま通す（checkoutはゲストでも使える）。
func OptionalAuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return next(c)
			}

			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return next(c)
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return next(c)
			}

			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return next(c)
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return next(c)
			}

			userID, err := parseUserID(claims["sub"])
			if err != nil || userID <= 0 {
				return next(c)
			}

			role, err := parseString(claims["role"])
			if err != nil || role == "" {
				return next(c)
			}

			tv, err := parseInt(claims["tv"])
			if err != nil || tv < 0 {
				return next(c)
			}

			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			c.Set(CtxTokenVersionKey, tv)

			return next(c)
		}
	}
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/liabon/internal/utils"
)

// AdminAuth guards operator endpoints. Two credentials are accepted: the
// static x-admin-key header used by the dashboard, or a Bearer JWT from
// the admin login endpoint.
func AdminAuth(adminAPIKey, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if adminAPIKey != "" && c.Get("x-admin-key") == adminAPIKey {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "인증이 필요합니다.")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return fiber.NewError(fiber.StatusUnauthorized, "잘못된 인증 형식입니다.")
		}

		claims, err := utils.ParseToken(tokenString, jwtSecret)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
		}

		c.Locals("admin_id", claims.AdminID)
		c.Locals("admin_username", claims.Username)
		return c.Next()
	}
}

package controller

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	principalKey = "principal"
	groupsClaim  = "cognito:groups"
)

// Principal - аутентифицированный вызывающий
type Principal struct {
	Subject string
	Groups  []string
}

// HasGroup проверяет членство в группе
func (p *Principal) HasGroup(group string) bool {
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// PrincipalFrom достаёт Principal, сохранённый Authenticate
func PrincipalFrom(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(principalKey).(*Principal)
	return p, ok
}

// Authenticate проверяет Bearer JWT (HMAC) и кладёт Principal в Locals.
// Пустой secret отклоняет все запросы.
func Authenticate(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		if len(key) == 0 {
			return jsonResponse(c, fiber.StatusUnauthorized, false, "Authentication is not configured", nil)
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return jsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return jsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return jsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return jsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
		}

		c.Locals(principalKey, &Principal{
			Subject: sub,
			Groups:  groupsFromClaims(claims),
		})
		return c.Next()
	}
}

// RequireGroup пропускает только участников группы. Ставится после Authenticate.
func RequireGroup(group string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return jsonResponse(c, fiber.StatusUnauthorized, false, "Not authenticated", nil)
		}
		if !p.HasGroup(group) {
			return jsonResponse(c, fiber.StatusForbidden, false, "Access denied", nil)
		}
		return c.Next()
	}
}

// groupsFromClaims принимает и массив, и одну строку
func groupsFromClaims(claims jwt.MapClaims) []string {
	switch v := claims[groupsClaim].(type) {
	case string:
		return []string{v}
	case []interface{}:
		groups := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}
		return groups
	default:
		return nil
	}
}

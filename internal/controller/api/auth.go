package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/Freeeeeet/musicschool/internal/model"
)

const actorKey = "actor"

// Claims содержимое access-токена: sub = id пользователя, role = роль
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken подписывает HS256-токен для пользователя
func IssueToken(secret string, userID uuid.UUID, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken проверяет подпись и срок действия и возвращает actor
func ParseToken(secret, tokenString string) (model.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.Actor{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, fmt.Errorf("invalid subject: %w", err)
	}

	switch claims.Role {
	case model.RoleStudent, model.RoleTeacher, model.RoleAdmin:
	default:
		return model.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return model.Actor{UserID: userID, Role: claims.Role}, nil
}

// authMiddleware кладёт model.Actor из Bearer-токена в Locals
func authMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		actor, err := ParseToken(secret, tokenString)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("authorization header must be Bearer <token>")
	}
	return strings.TrimSpace(parts[1]), nil
}

// actorFrom actor текущего запроса; маршруты без authMiddleware получают пустой
func actorFrom(c *fiber.Ctx) model.Actor {
	actor, _ := c.Locals(actorKey).(model.Actor)
	return actor
}

package middleware

import (
	"errors"
	"strings"
	"time"

	"FleetDesk/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const CookieName = "jwt"

// Auth signs session tokens and guards routes with permission levels.
type Auth struct {
	DB     *gorm.DB
	Secret []byte
	TTL    time.Duration
}

func NewAuth(db *gorm.DB, secret string) *Auth {
	return &Auth{DB: db, Secret: []byte(secret), TTL: 24 * time.Hour}
}

// Sign issues a token whose issuer is the user id.
func (a *Auth) Sign(user Models.User) (string, time.Time, error) {
	expires := time.Now().Add(a.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    user.ID,
		Subject:   user.Email,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	return token, expires, err
}

func (a *Auth) parse(raw string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Verify lets the request through when the user's role grants at least
// requiredPermission. 0 only requires a valid session.
func (a *Auth) Verify(requiredPermission int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get JWT from the cookie, or from the Authorization header
		raw := c.Cookies(CookieName)
		if raw == "" {
			raw = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not Logged In.",
			})
		}

		claims, err := a.parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		// Get user from database
		var user Models.User
		result := a.DB.Where("id = ?", claims.Issuer).First(&user)
		if result.Error != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "User not found",
			})
		}

		// Store user in context for later use in handlers
		c.Locals("user", user)

		if user.Permission() == 0 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You do not have permission to access this page",
			})
		}
		if user.Permission() >= requiredPermission {
			return c.Next()
		}

		// User doesn't have sufficient permissions
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Insufficient permissions to access this resource",
		})
	}
}

// CurrentUser returns the user stored by Verify.
func CurrentUser(c *fiber.Ctx) (Models.User, bool) {
	user, ok := c.Locals("user").(Models.User)
	return user, ok
}

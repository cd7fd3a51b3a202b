package Controllers

import (
	"errors"
	"strings"
	"time"

	"FleetDesk/Models"
	"FleetDesk/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthController handles login and the user accounts
type AuthController struct {
	DB   *gorm.DB
	Auth *middleware.Auth
}

func NewAuthController(db *gorm.DB, auth *middleware.Auth) *AuthController {
	return &AuthController{DB: db, Auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login checks the credentials and sets the jwt cookie
// POST /api/login
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	var user Models.User
	err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Incorrect email or password",
		})
	}

	token, expires, err := h.Auth.Sign(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not log in",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// POST /api/logout
func (h *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// GET /api/me
func (h *AuthController) Me(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"user":       user,
		"permission": user.Permission(),
	})
}

type userRequest struct {
	Nom      string `json:"nom" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin comptable gestionnaire lecteur"`
}

// GET /api/users
func (h *AuthController) ListUsers(c *fiber.Ctx) error {
	var users []Models.User
	if err := h.DB.Order("nom ASC").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}
	return c.JSON(fiber.Map{"message": "Users retrieved successfully", "data": users})
}

// POST /api/users
func (h *AuthController) CreateUser(c *fiber.Ctx) error {
	var req userRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}
	if req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"errors": fiber.Map{"password": "password est un champ obligatoire"},
		})
	}

	user := Models.User{Nom: req.Nom, Email: strings.ToLower(req.Email), Role: req.Role}
	if err := user.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A user with this email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// PUT /api/users/:id
func (h *AuthController) UpdateUser(c *fiber.Ctx) error {
	var user Models.User
	if err := h.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "User")
	}

	var req userRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	// An admin cannot lock themselves out
	if current, ok := middleware.CurrentUser(c); ok && current.ID == user.ID && req.Role != Models.RoleAdmin {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You cannot remove your own admin role"})
	}

	user.Nom = req.Nom
	user.Email = strings.ToLower(req.Email)
	user.Role = req.Role
	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
		}
	}
	if err := h.DB.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A user with this email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}
	return c.JSON(user)
}

// DELETE /api/users/:id
func (h *AuthController) DeleteUser(c *fiber.Ctx) error {
	var user Models.User
	if err := h.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return notFound(c, "User")
	}
	if current, ok := middleware.CurrentUser(c); ok && current.ID == user.ID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You cannot delete your own account"})
	}

	// Hard delete frees the email for a new account
	if err := h.DB.Unscoped().Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

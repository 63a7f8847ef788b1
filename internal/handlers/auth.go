package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

func validUserType(t string) bool {
	return t == string(models.UserTypeFreelancer) || t == string(models.UserTypeEmployer)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req credentialsReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	userType := strings.TrimSpace(req.UserType)

	if username == "" || password == "" || userType == "" {
		return models.RespondWithError(c, models.NewValidationError("Missing credentials"))
	}
	if !validUserType(userType) {
		return models.RespondWithError(c, models.NewValidationError("Invalid user type"))
	}

	var existing models.User
	err := h.DB.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return models.RespondWithError(c, models.NewConflictError("Username already exists"))
	} else if err != gorm.ErrRecordNotFound {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	u := models.User{
		Username: username,
		Password: hashed,
		UserType: models.UserType(userType),
	}
	if u.UserType == models.UserTypeFreelancer {
		u.Skills = []string{}
	}

	if err := h.DB.Create(&u).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.UserType), h.Expires)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":    token,
		"userType": u.UserType,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	userType := strings.TrimSpace(req.UserType)

	if username == "" || password == "" || userType == "" {
		return models.RespondWithError(c, models.NewValidationError("Missing credentials"))
	}

	var u models.User
	if err := h.DB.Where("username = ?", username).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.RespondWithError(c, models.NewNotFoundError("User not found"))
		}
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	if string(u.UserType) != userType {
		return models.RespondWithError(c, models.NewValidationError("Invalid user type"))
	}

	if !utils.CheckPassword(u.Password, password) {
		return models.RespondWithError(c, models.NewUnauthorizedError("Incorrect password"))
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.UserType), h.Expires)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token":    token,
		"userType": u.UserType,
	})
}

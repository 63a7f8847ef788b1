package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{DB: db}
}

// Me returns the caller's role-shaped profile.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(user.Profile())
}

type updateProfileReq struct {
	Skills        *string `json:"skills"` // comma-separated
	Bio           *string `json:"bio"`
	Photo         *string `json:"photo"`
	Schooling     *string `json:"schooling"`
	Degree        *string `json:"degree"`
	Certification *string `json:"certification"`
	Company       *string `json:"company"`
}

func splitSkills(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// UpdateProfile applies only the fields valid for the caller's role; fields
// for the other role are silently ignored.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req updateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}

	updates := map[string]interface{}{}
	if user.UserType == models.UserTypeFreelancer {
		if req.Skills != nil && *req.Skills != "" {
			updates["skills"] = datatypes.NewJSONSlice(splitSkills(*req.Skills))
		}
		if req.Bio != nil {
			updates["bio"] = *req.Bio
		}
		if req.Photo != nil {
			updates["photo"] = *req.Photo
		}
		if req.Schooling != nil {
			updates["schooling"] = *req.Schooling
		}
		if req.Degree != nil {
			updates["degree"] = *req.Degree
		}
		if req.Certification != nil {
			updates["certification"] = *req.Certification
		}
	} else {
		if req.Bio != nil {
			updates["bio"] = *req.Bio
		}
		if req.Company != nil {
			updates["company"] = *req.Company
		}
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return models.RespondWithError(c, models.NewValidationError("Failed to update profile"))
		}
	}

	var updated models.User
	if err := h.DB.First(&updated, "id = ?", user.ID).Error; err != nil {
		return models.RespondWithError(c, models.NewNotFoundError("User not found"))
	}
	return c.JSON(updated.Profile())
}

// freelancerSearchResult is the public subset an employer sees in search.
type freelancerSearchResult struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Skills   []string  `json:"skills"`
	Bio      string    `json:"bio"`
	Ratings  float64   `json:"ratings"`
}

// SearchFreelancers filters freelancers by case-insensitive name substring,
// minimum rating and skill intersection. Employer only (route-gated).
func (h *ProfileHandler) SearchFreelancers(c *fiber.Ctx) error {
	q := h.DB.Model(&models.User{}).Where("user_type = ?", models.UserTypeFreelancer)

	if name := c.Query("name"); name != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if minRating := c.Query("minRating"); minRating != "" {
		min, err := strconv.ParseFloat(minRating, 64)
		if err != nil {
			return models.RespondWithError(c, models.NewValidationError("Invalid minRating"))
		}
		q = q.Where("ratings >= ?", min)
	}

	var freelancers []models.User
	if err := q.Find(&freelancers).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	// Skill matching happens in memory: skills live in a JSON column and the
	// containment operators differ across dialects.
	var wanted []string
	if skills := c.Query("skills"); skills != "" {
		wanted = splitSkills(skills)
	}

	results := make([]freelancerSearchResult, 0, len(freelancers))
	for _, f := range freelancers {
		if len(wanted) > 0 && !hasAnySkill(f.Skills, wanted) {
			continue
		}
		skills := []string(f.Skills)
		if skills == nil {
			skills = []string{}
		}
		results = append(results, freelancerSearchResult{
			ID:       f.ID,
			Username: f.Username,
			Skills:   skills,
			Bio:      f.Bio,
			Ratings:  f.Ratings,
		})
	}
	return c.JSON(results)
}

func hasAnySkill(have []string, wanted []string) bool {
	set := make(map[string]bool, len(have))
	for _, s := range have {
		set[strings.ToLower(strings.TrimSpace(s))] = true
	}
	for _, w := range wanted {
		if set[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

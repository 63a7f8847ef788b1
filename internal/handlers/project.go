package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/services/accounting"
)

type ProjectHandler struct {
	DB         *gorm.DB
	Accounting *accounting.Service
}

func NewProjectHandler(db *gorm.DB, acct *accounting.Service) *ProjectHandler {
	return &ProjectHandler{DB: db, Accounting: acct}
}

type createProjectReq struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Budget         float64 `json:"budget"`
	SkillsRequired string  `json:"skillsRequired"` // comma-separated
}

// Create posts a new project with status open. Employer only (route-gated).
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req createProjectReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" || req.Budget <= 0 {
		return models.RespondWithError(c, models.NewValidationError("Missing required fields"))
	}

	project := models.Project{
		Title:          title,
		Description:    description,
		Budget:         req.Budget,
		SkillsRequired: datatypes.NewJSONSlice(splitSkills(req.SkillsRequired)),
		PostedByID:     user.ID,
		Status:         models.ProjectStatusOpen,
	}
	if err := h.DB.Create(&project).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Project created", "project": project})
}

// ListOpen returns every project still open for applications.
func (h *ProjectHandler) ListOpen(c *fiber.Ctx) error {
	var projects []models.Project
	if err := h.DB.
		Where("status = ? AND assigned_to_id IS NULL", models.ProjectStatusOpen).
		Find(&projects).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}
	return c.JSON(projects)
}

type userRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type myProjectOut struct {
	ID             uuid.UUID            `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Budget         float64              `json:"budget"`
	SkillsRequired []string             `json:"skillsRequired"`
	Status         models.ProjectStatus `json:"status"`
	PaymentStatus  string               `json:"paymentStatus"`
	PostedBy       *userRef             `json:"postedBy"`
	AssignedTo     *userRef             `json:"assignedTo"`
	CreatedAt      time.Time            `json:"created_at"`
}

func toUserRef(u *models.User) *userRef {
	if u == nil {
		return nil
	}
	return &userRef{ID: u.ID, Username: u.Username}
}

// MyProjects lists the caller's own postings with poster and assignee
// identities resolved. Employer only (route-gated).
func (h *ProjectHandler) MyProjects(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var projects []models.Project
	if err := h.DB.
		Preload("PostedBy").
		Preload("AssignedTo").
		Where("posted_by_id = ?", user.ID).
		Find(&projects).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	out := make([]myProjectOut, 0, len(projects))
	for _, p := range projects {
		skills := []string(p.SkillsRequired)
		if skills == nil {
			skills = []string{}
		}
		out = append(out, myProjectOut{
			ID:             p.ID,
			Title:          p.Title,
			Description:    p.Description,
			Budget:         p.Budget,
			SkillsRequired: skills,
			Status:         p.Status,
			PaymentStatus:  p.PaymentStatus,
			PostedBy:       toUserRef(p.PostedBy),
			AssignedTo:     toUserRef(p.AssignedTo),
			CreatedAt:      p.CreatedAt,
		})
	}
	return c.JSON(out)
}

// Delete removes an owned project and cascades to its applications. Chat
// messages are intentionally left in place.
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid project ID"))
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Where("id = ? AND posted_by_id = ?", projectID, user.ID).First(&project).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NewNotFoundError("Project not found or not authorized")
			}
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Application{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Project deleted"})
}

type assignProjectReq struct {
	ProjectID    string `json:"projectId"`
	FreelancerID string `json:"freelancerId"`
}

// Assign hands an open project to a freelancer in one transaction: the
// project becomes assigned, the chosen freelancer's application is accepted,
// every other application is rejected, and the budget moves onto the
// freelancer's pending balance. The employer's spend counter is NOT touched
// here; the payment operation is the single accounting point for spend.
func (h *ProjectHandler) Assign(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req assignProjectReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid project ID"))
	}
	freelancerID, err := uuid.Parse(req.FreelancerID)
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid freelancer ID"))
	}

	var project models.Project
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND posted_by_id = ?", projectID, user.ID).First(&project).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NewNotFoundError("Project not found or not authorized")
			}
			return err
		}

		var freelancer models.User
		if err := tx.First(&freelancer, "id = ?", freelancerID).Error; err != nil || freelancer.UserType != models.UserTypeFreelancer {
			return models.NewNotFoundError("Freelancer not found")
		}

		// Conditional transition guards against a concurrent assign.
		result := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", projectID, models.ProjectStatusOpen).
			Updates(map[string]interface{}{
				"status":         models.ProjectStatusAssigned,
				"assigned_to_id": freelancerID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewConflictError("Project already assigned or closed")
		}

		if err := tx.Model(&models.Application{}).
			Where("project_id = ? AND freelancer_id = ?", projectID, freelancerID).
			Update("status", models.ApplicationStatusAccepted).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Application{}).
			Where("project_id = ? AND freelancer_id <> ?", projectID, freelancerID).
			Update("status", models.ApplicationStatusRejected).Error; err != nil {
			return err
		}

		return h.Accounting.HoldPending(tx, freelancerID, project.Budget)
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"message": "Project assigned", "project": project})
}

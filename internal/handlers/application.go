package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
)

type ApplicationHandler struct {
	DB       *gorm.DB
	Notifier *realtime.Notifier
}

func NewApplicationHandler(db *gorm.DB, notifier *realtime.Notifier) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Notifier: notifier}
}

type projectMini struct {
	ID            uuid.UUID            `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Budget        float64              `json:"budget"`
	Status        models.ProjectStatus `json:"status"`
	PaymentStatus string               `json:"paymentStatus"`
}

type freelancerMini struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Skills        []string  `json:"skills"`
	Bio           string    `json:"bio"`
	Schooling     string    `json:"schooling"`
	Degree        string    `json:"degree"`
	Certification string    `json:"certification"`
	Ratings       float64   `json:"ratings"`
}

type applicationOut struct {
	ID            uuid.UUID                `json:"id"`
	ProjectID     uuid.UUID                `json:"projectId"`
	FreelancerID  uuid.UUID                `json:"freelancerId"`
	CoverLetter   string                   `json:"coverLetter"`
	Status        models.ApplicationStatus `json:"status"`
	PaymentStatus string                   `json:"paymentStatus"`
	Rating        *int                     `json:"rating"`
	Feedback      string                   `json:"feedback"`
	CreatedAt     time.Time                `json:"created_at"`
	Project       *projectMini             `json:"project,omitempty"`
	Freelancer    *freelancerMini          `json:"freelancer,omitempty"`
}

func toApplicationOut(a *models.Application) applicationOut {
	out := applicationOut{
		ID:            a.ID,
		ProjectID:     a.ProjectID,
		FreelancerID:  a.FreelancerID,
		CoverLetter:   a.CoverLetter,
		Status:        a.Status,
		PaymentStatus: a.PaymentStatus,
		Rating:        a.Rating,
		Feedback:      a.Feedback,
		CreatedAt:     a.CreatedAt,
	}
	if a.Project != nil {
		out.Project = &projectMini{
			ID:            a.Project.ID,
			Title:         a.Project.Title,
			Description:   a.Project.Description,
			Budget:        a.Project.Budget,
			Status:        a.Project.Status,
			PaymentStatus: a.Project.PaymentStatus,
		}
	}
	if a.Freelancer != nil {
		skills := []string(a.Freelancer.Skills)
		if skills == nil {
			skills = []string{}
		}
		out.Freelancer = &freelancerMini{
			ID:            a.Freelancer.ID,
			Username:      a.Freelancer.Username,
			Skills:        skills,
			Bio:           a.Freelancer.Bio,
			Schooling:     a.Freelancer.Schooling,
			Degree:        a.Freelancer.Degree,
			Certification: a.Freelancer.Certification,
			Ratings:       a.Freelancer.Ratings,
		}
	}
	return out
}

func toApplicationOuts(apps []models.Application) []applicationOut {
	out := make([]applicationOut, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationOut(&apps[i]))
	}
	return out
}

type applyReq struct {
	ProjectID   string `json:"projectId"`
	CoverLetter string `json:"coverLetter"`
}

// Apply creates a pending application. Freelancer only (route-gated); one
// application per (project, freelancer).
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req applyReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}
	if req.ProjectID == "" {
		return models.RespondWithError(c, models.NewValidationError("Project ID is required"))
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid project ID"))
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil || project.Status != models.ProjectStatusOpen {
		return models.RespondWithError(c, models.NewNotFoundError("Project not found or not open"))
	}

	var existing models.Application
	err = h.DB.Where("project_id = ? AND freelancer_id = ?", projectID, user.ID).First(&existing).Error
	if err == nil {
		return models.RespondWithError(c, models.NewConflictError("Already applied to this project"))
	} else if err != gorm.ErrRecordNotFound {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	application := models.Application{
		ProjectID:    projectID,
		FreelancerID: user.ID,
		CoverLetter:  req.CoverLetter,
		Status:       models.ApplicationStatusPending,
	}
	if err := h.DB.Create(&application).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Application submitted", "application": toApplicationOut(&application)})
}

// List returns the caller's applications: a freelancer sees their own with
// project details, an employer sees every application across their projects
// with freelancer details.
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var apps []models.Application
	if user.UserType == models.UserTypeFreelancer {
		if err := h.DB.Preload("Project").
			Where("freelancer_id = ?", user.ID).
			Find(&apps).Error; err != nil {
			return models.RespondWithError(c, models.NewInternalError(err))
		}
	} else {
		if err := h.DB.Preload("Project").Preload("Freelancer").
			Joins("JOIN projects ON projects.id = applications.project_id").
			Where("projects.posted_by_id = ?", user.ID).
			Find(&apps).Error; err != nil {
			return models.RespondWithError(c, models.NewInternalError(err))
		}
	}
	return c.JSON(toApplicationOuts(apps))
}

// ListForProject returns one owned project together with its applications.
// Employer only (route-gated).
func (h *ApplicationHandler) ListForProject(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	projectID, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid project ID"))
	}

	var project models.Project
	if err := h.DB.Where("id = ? AND posted_by_id = ?", projectID, user.ID).First(&project).Error; err != nil {
		return models.RespondWithError(c, models.NewNotFoundError("Project not found or not authorized"))
	}

	var apps []models.Application
	if err := h.DB.Preload("Project").Preload("Freelancer").
		Where("project_id = ?", projectID).
		Find(&apps).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"project": project, "applications": toApplicationOuts(apps)})
}

// Get returns one application with freelancer background and project
// details. Only the project owner may look.
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid application ID"))
	}

	var application models.Application
	if err := h.DB.Preload("Project").Preload("Freelancer").
		First(&application, "id = ?", appID).Error; err != nil {
		return models.RespondWithError(c, models.NewNotFoundError("Application not found"))
	}
	if application.Project == nil || application.Project.PostedByID != user.ID {
		return models.RespondWithError(c, models.NewForbiddenError("Not authorized"))
	}

	return c.JSON(toApplicationOut(&application))
}

// loadOwnedApplication fetches an application and checks the caller owns its
// project. Used by the employer-side mutations.
func (h *ApplicationHandler) loadOwnedApplication(tx *gorm.DB, appID, employerID uuid.UUID) (*models.Application, error) {
	var application models.Application
	if err := tx.Preload("Project").First(&application, "id = ?", appID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Application not found")
		}
		return nil, err
	}
	if application.Project == nil || application.Project.PostedByID != employerID {
		return nil, models.NewForbiddenError("Not authorized")
	}
	return &application, nil
}

// Accept marks one application accepted and assigns the project to its
// freelancer, atomically. Unlike Assign, it does not reject siblings and
// moves no money.
func (h *ApplicationHandler) Accept(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid application ID"))
	}

	var application *models.Application
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		application, err = h.loadOwnedApplication(tx, appID, user.ID)
		if err != nil {
			return err
		}
		if application.Status != models.ApplicationStatusPending {
			return models.NewConflictError("Application already decided")
		}
		if err := tx.Model(application).Update("status", models.ApplicationStatusAccepted).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).
			Where("id = ?", application.ProjectID).
			Updates(map[string]interface{}{
				"status":         models.ProjectStatusAssigned,
				"assigned_to_id": application.FreelancerID,
			}).Error
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Application accepted", "application": toApplicationOut(application)})
}

// Reject marks one application rejected.
func (h *ApplicationHandler) Reject(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid application ID"))
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		application, err := h.loadOwnedApplication(tx, appID, user.ID)
		if err != nil {
			return err
		}
		if application.Status != models.ApplicationStatusPending {
			return models.NewConflictError("Application already decided")
		}
		return tx.Model(application).Update("status", models.ApplicationStatusRejected).Error
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Application rejected"})
}

type rateReq struct {
	Rating int `json:"rating"`
}

// Rate writes a one-time rating onto a paid application and recomputes the
// freelancer's average over all their rated applications.
func (h *ApplicationHandler) Rate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid application ID"))
	}

	var req rateReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}
	if req.Rating < 1 || req.Rating > 5 {
		return models.RespondWithError(c, models.NewValidationError("Invalid rating value (must be between 1 and 5)"))
	}

	var projectID uuid.UUID
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		application, err := h.loadOwnedApplication(tx, appID, user.ID)
		if err != nil {
			return err
		}
		if application.PaymentStatus != models.PaymentStatusPaid {
			return models.NewValidationError("Payment must be completed before rating")
		}

		// Write-once: the conditional update loses the race to a concurrent
		// first rating.
		result := tx.Model(&models.Application{}).
			Where("id = ? AND rating IS NULL", appID).
			Update("rating", req.Rating)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewConflictError("Rating already submitted")
		}

		var rated []models.Application
		if err := tx.Where("freelancer_id = ? AND rating IS NOT NULL", application.FreelancerID).
			Find(&rated).Error; err != nil {
			return err
		}
		var avg float64
		if len(rated) > 0 {
			sum := 0
			for _, a := range rated {
				sum += *a.Rating
			}
			avg = float64(sum) / float64(len(rated))
		}

		projectID = application.ProjectID
		return tx.Model(&models.User{}).
			Where("id = ?", application.FreelancerID).
			Update("ratings", avg).Error
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	h.Notifier.PublishProject(c.Context(), projectID, realtime.EventRatingUpdated, fiber.Map{
		"applicationId": appID,
		"rating":        req.Rating,
	})
	return c.JSON(fiber.Map{"message": "Rating submitted", "rating": req.Rating})
}

type feedbackReq struct {
	Feedback string `json:"feedback"`
}

// Feedback writes one-time feedback text onto an application.
func (h *ApplicationHandler) Feedback(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid application ID"))
	}

	var req feedbackReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}
	feedback := req.Feedback
	if feedback == "" {
		return models.RespondWithError(c, models.NewValidationError("Feedback is required"))
	}

	var projectID uuid.UUID
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		application, err := h.loadOwnedApplication(tx, appID, user.ID)
		if err != nil {
			return err
		}

		result := tx.Model(&models.Application{}).
			Where("id = ? AND (feedback IS NULL OR feedback = '')", appID).
			Update("feedback", feedback)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewConflictError("Feedback already submitted")
		}

		projectID = application.ProjectID
		return nil
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	h.Notifier.PublishProject(c.Context(), projectID, realtime.EventFeedbackUpdated, fiber.Map{
		"applicationId": appID,
		"feedback":      feedback,
	})
	return c.JSON(fiber.Map{"message": "Feedback submitted", "feedback": feedback})
}

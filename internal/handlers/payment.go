package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
	"github.com/freelancehub/backend/internal/services/accounting"
)

type PaymentHandler struct {
	DB         *gorm.DB
	Accounting *accounting.Service
	Notifier   *realtime.Notifier
}

func NewPaymentHandler(db *gorm.DB, acct *accounting.Service, notifier *realtime.Notifier) *PaymentHandler {
	return &PaymentHandler{DB: db, Accounting: acct, Notifier: notifier}
}

type paymentRequestReq struct {
	ProjectID string  `json:"projectId"`
	Amount    float64 `json:"amount"`
}

// Request lets the assigned freelancer post a payment request into the
// project chat. Freelancer only (route-gated).
func (h *PaymentHandler) Request(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req paymentRequestReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid project ID"))
	}
	if req.Amount <= 0 {
		return models.RespondWithError(c, models.NewValidationError("Invalid amount"))
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil ||
		project.AssignedToID == nil || *project.AssignedToID != user.ID {
		return models.RespondWithError(c, models.NewForbiddenError("Not authorized"))
	}

	message := models.Message{
		ProjectID: projectID,
		SenderID:  user.ID,
		Content:   fmt.Sprintf("Payment request: $%v", req.Amount),
	}
	if err := h.DB.Create(&message).Error; err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	h.Notifier.PublishProject(c.Context(), projectID, realtime.EventReceiveMessage, toMessageOut(&message, user.Username))
	return c.JSON(fiber.Map{"message": "Payment requested"})
}

type payReq struct {
	ProjectID    string  `json:"projectId"`
	FreelancerID string  `json:"freelancerId"`
	Amount       float64 `json:"amount"`
}

// Pay settles a project in one atomic unit of work: the project and the
// accepted application flip to paid exactly once, the freelancer is
// credited, the employer debited, and a payment-record message appended.
// A partial application of these writes would create or destroy money, so
// any failure rolls the whole thing back.
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req payReq
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}
	if req.ProjectID == "" || req.FreelancerID == "" || req.Amount <= 0 {
		return models.RespondWithError(c, models.NewValidationError("Missing or invalid required fields"))
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
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NewNotFoundError("Project not found")
			}
			return err
		}
		if project.PostedByID != user.ID {
			return models.NewForbiddenError("Not authorized")
		}

		// Conditional flip: of two racing payments, exactly one sees a row
		// change here and proceeds; the other gets a conflict.
		result := tx.Model(&models.Project{}).
			Where("id = ? AND payment_status <> ?", projectID, models.PaymentStatusPaid).
			Update("payment_status", models.PaymentStatusPaid)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewConflictError("Payment already made")
		}

		var application models.Application
		if err := tx.Where("project_id = ? AND freelancer_id = ?", projectID, freelancerID).
			First(&application).Error; err != nil || application.Status != models.ApplicationStatusAccepted {
			return models.NewValidationError("No accepted application found for this freelancer")
		}
		result = tx.Model(&models.Application{}).
			Where("id = ? AND payment_status <> ?", application.ID, models.PaymentStatusPaid).
			Update("payment_status", models.PaymentStatusPaid)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewConflictError("Payment already processed for this application")
		}

		var freelancer models.User
		if err := tx.First(&freelancer, "id = ?", freelancerID).Error; err != nil ||
			freelancer.UserType != models.UserTypeFreelancer {
			return models.NewNotFoundError("Freelancer not found")
		}

		if err := h.Accounting.CreditFreelancer(tx, freelancerID, req.Amount); err != nil {
			return err
		}
		if err := h.Accounting.DebitEmployer(tx, user.ID, req.Amount); err != nil {
			return err
		}

		message := models.Message{
			ProjectID: projectID,
			SenderID:  user.ID,
			Content:   fmt.Sprintf("Payment sent: $%v", req.Amount),
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	h.Notifier.PublishProject(c.Context(), projectID, realtime.EventPaymentUpdated, fiber.Map{
		"project": fiber.Map{
			"id":            projectID,
			"paymentStatus": models.PaymentStatusPaid,
		},
	})

	project.PaymentStatus = models.PaymentStatusPaid
	return c.JSON(fiber.Map{"message": "Payment sent", "project": project})
}

package accounting

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/models"
)

// Service mutates the role-specific money counters on account rows. Every
// method expects to run inside a caller-owned DB transaction and keeps the
// counters non-negative.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// HoldPending adds an assigned project's budget to the freelancer's pending
// balance.
func (s *Service) HoldPending(tx *gorm.DB, freelancerID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return errors.New("amount to hold must be greater than zero")
	}

	result := tx.Model(&models.User{}).
		Where("id = ? AND user_type = ?", freelancerID, models.UserTypeFreelancer).
		Update("pending_payments", gorm.Expr("pending_payments + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("freelancer not found for user %s", freelancerID)
	}
	return nil
}

// CreditFreelancer adds a payment to the freelancer's earnings and releases
// up to the same amount from the pending balance, never below zero.
func (s *Service) CreditFreelancer(tx *gorm.DB, freelancerID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return errors.New("amount to credit must be greater than zero")
	}

	result := tx.Model(&models.User{}).
		Where("id = ? AND user_type = ?", freelancerID, models.UserTypeFreelancer).
		Updates(map[string]interface{}{
			"total_earned":     gorm.Expr("total_earned + ?", amount),
			"pending_payments": gorm.Expr("CASE WHEN pending_payments > ? THEN pending_payments - ? ELSE 0 END", amount, amount),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("freelancer not found for user %s", freelancerID)
	}
	return nil
}

// DebitEmployer records a payment against the employer's total spend.
func (s *Service) DebitEmployer(tx *gorm.DB, employerID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return errors.New("amount to debit must be greater than zero")
	}

	result := tx.Model(&models.User{}).
		Where("id = ? AND user_type = ?", employerID, models.UserTypeEmployer).
		Update("total_spent", gorm.Expr("total_spent + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("employer not found for user %s", employerID)
	}
	return nil
}

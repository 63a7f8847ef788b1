package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application links one freelancer to one project. The (project, freelancer)
// pair is unique. Rating and feedback are write-once and only allowed after
// the application has been paid.
type Application struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_applications_project_freelancer" json:"projectId"`
	FreelancerID  uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_applications_project_freelancer" json:"freelancerId"`
	CoverLetter   string            `gorm:"type:text" json:"coverLetter"`
	Status        ApplicationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus string            `gorm:"type:varchar(20);default:''" json:"paymentStatus"`
	Rating        *int              `json:"rating"` // 1..5, write-once
	Feedback      string            `gorm:"type:text" json:"feedback"` // write-once

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project    *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

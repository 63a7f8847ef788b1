package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusOpen     ProjectStatus = "open"
	ProjectStatusAssigned ProjectStatus = "assigned"
	// Representable for stored records; no operation currently produces it.
	ProjectStatusInProgress ProjectStatus = "in-progress"
)

// PaymentStatusPaid marks a project or application whose payment went through.
// The zero value means unpaid.
const PaymentStatusPaid = "paid"

type Project struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string                      `gorm:"not null" json:"title"`
	Description    string                      `gorm:"type:text;not null" json:"description"`
	Budget         float64                     `gorm:"not null" json:"budget"` // immutable after creation
	SkillsRequired datatypes.JSONSlice[string] `json:"skillsRequired"`
	PostedByID     uuid.UUID                   `gorm:"type:uuid;index;not null" json:"postedBy"`
	AssignedToID   *uuid.UUID                  `gorm:"type:uuid;index" json:"assignedTo"`
	Status         ProjectStatus               `gorm:"type:varchar(20);default:'open';index" json:"status"`
	PaymentStatus  string                      `gorm:"type:varchar(20);default:''" json:"paymentStatus"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PostedBy   *User `gorm:"foreignKey:PostedByID" json:"poster,omitempty"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assignee,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

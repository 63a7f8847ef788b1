package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeFreelancer UserType = "freelancer"
	UserTypeEmployer   UserType = "employer"
)

// User carries both role variants on one row; which fields are meaningful
// is decided by UserType (see FreelancerProfile / EmployerProfile views).
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"uniqueIndex;not null" json:"username"`
	Password string    `gorm:"not null" json:"-"`
	UserType UserType  `gorm:"type:varchar(20);not null;index" json:"userType"`

	// Freelancer fields
	Skills          datatypes.JSONSlice[string] `json:"skills"`
	Bio             string                      `gorm:"type:text" json:"bio"`
	Photo           string                      `gorm:"type:text" json:"photo"`
	Schooling       string                      `json:"schooling"`
	Degree          string                      `json:"degree"`
	Certification   string                      `json:"certification"`
	TotalEarned     float64                     `gorm:"default:0" json:"totalEarned"`
	PendingPayments float64                     `gorm:"default:0" json:"pendingPayments"`
	Ratings         float64                     `gorm:"default:0" json:"ratings"` // 0..5, mean of rated applications

	// Employer fields
	Company    string  `json:"company"`
	TotalSpent float64 `gorm:"default:0" json:"totalSpent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// FreelancerProfile is the freelancer-shaped view of a User.
type FreelancerProfile struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	UserType        UserType  `json:"userType"`
	Skills          []string  `json:"skills"`
	Bio             string    `json:"bio"`
	Photo           string    `json:"photo"`
	Schooling       string    `json:"schooling"`
	Degree          string    `json:"degree"`
	Certification   string    `json:"certification"`
	TotalEarned     float64   `json:"totalEarned"`
	PendingPayments float64   `json:"pendingPayments"`
	Ratings         float64   `json:"ratings"`
}

// EmployerProfile is the employer-shaped view of a User.
type EmployerProfile struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	UserType   UserType  `json:"userType"`
	Bio        string    `json:"bio"`
	Company    string    `json:"company"`
	TotalSpent float64   `json:"totalSpent"`
}

// Profile returns the role-appropriate view of the user.
func (u *User) Profile() interface{} {
	if u.UserType == UserTypeFreelancer {
		skills := []string(u.Skills)
		if skills == nil {
			skills = []string{}
		}
		return FreelancerProfile{
			ID:              u.ID,
			Username:        u.Username,
			UserType:        u.UserType,
			Skills:          skills,
			Bio:             u.Bio,
			Photo:           u.Photo,
			Schooling:       u.Schooling,
			Degree:          u.Degree,
			Certification:   u.Certification,
			TotalEarned:     u.TotalEarned,
			PendingPayments: u.PendingPayments,
			Ratings:         u.Ratings,
		}
	}
	return EmployerProfile{
		ID:         u.ID,
		Username:   u.Username,
		UserType:   u.UserType,
		Bio:        u.Bio,
		Company:    u.Company,
		TotalSpent: u.TotalSpent,
	}
}

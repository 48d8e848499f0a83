package course

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is an issued certificate for course completion. Issuance is
// idempotent: at most one non-revoked certificate exists per (user, course).
type Certificate struct {
	gorm.Model
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	CourseID          uint      `gorm:"not null;index" json:"course_id"`
	OrganizationID    uint      `gorm:"not null;index" json:"organization_id"`
	CertificateNumber string    `json:"certificate_number" gorm:"unique"`
	CompletedAt       time.Time `json:"completed_at"`
	TimeSpentMinutes  int       `json:"time_spent_minutes"`
	AverageQuizScore  int       `json:"average_quiz_score"`
	IssuedAt          time.Time `json:"issued_at"`
	IsRevoked         bool      `json:"is_revoked" gorm:"default:false"`
	IsDeleted         bool      `gorm:"default:false"`
}

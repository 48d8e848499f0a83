// Package certificate implements the certificate collaborator over the
// platform's own certificates table.
package certificate

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	courseModels "lms/models/course"
	"lms/services/cascade"
)

// Issuer issues certificates idempotently: at most one non-revoked
// certificate per (user, course).
type Issuer struct {
	db *gorm.DB
}

func NewIssuer(db *gorm.DB) *Issuer {
	return &Issuer{db: db}
}

// IssueOrGet returns the existing non-revoked certificate for the pair, or
// creates a new one with a generated certificate number.
func (i *Issuer) IssueOrGet(orgID, userID, courseID uint, meta cascade.CertificateMeta) (*courseModels.Certificate, error) {
	var existing courseModels.Certificate
	err := i.db.Where("user_id = ? AND course_id = ? AND is_revoked = ? AND is_deleted = ?",
		userID, courseID, false, false).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cert := courseModels.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		OrganizationID:    orgID,
		CertificateNumber: "CERT-" + strings.ToUpper(uuid.NewString()),
		CompletedAt:       meta.CompletedAt,
		TimeSpentMinutes:  meta.TimeSpentMinutes,
		AverageQuizScore:  meta.AverageQuizScore,
		IssuedAt:          time.Now(),
	}
	if err := i.db.Create(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

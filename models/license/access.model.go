package license

import (
	"time"

	"gorm.io/gorm"
)

// AccessStatus enum values
const (
	AccessActive    = "ACTIVE"
	AccessRevoked   = "REVOKED"
	AccessCompleted = "COMPLETED"
)

// UserAccess is one learner's grant of access to a course, drawn from
// exactly one license. An ACTIVE grant against a SEAT license counts
// toward that license's seats_consumed.
type UserAccess struct {
	gorm.Model
	UserID          uint       `gorm:"not null;index" json:"userId"`
	LicenseID       uint       `gorm:"not null;index" json:"licenseId"`
	OrganizationID  uint       `gorm:"not null;index" json:"organizationId"`
	CourseID        uint       `gorm:"not null;index" json:"courseId"`
	Status          string     `gorm:"not null;type:varchar(20);default:'ACTIVE'" json:"status"`
	ProgressPercent *int       `json:"progressPercent"` // denormalized mirror of enrollment progress
	GrantedBy       uint       `gorm:"not null" json:"grantedBy"`
	RevokedBy       *uint      `json:"revokedBy"`
	RevokedAt       *time.Time `json:"revokedAt"`
	RevokeReason    string     `gorm:"type:text" json:"revokeReason"`
	IsDeleted       bool       `gorm:"default:false" json:"isDeleted"`

	// Relations
	License License `gorm:"foreignKey:LicenseID" json:"license,omitempty"`
}

func (UserAccess) TableName() string {
	return "user_accesses"
}

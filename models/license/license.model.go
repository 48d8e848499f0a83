package license

import (
	"time"

	"gorm.io/gorm"
)

// LicenseKind enum values
const (
	KindSeat        = "SEAT"
	KindUnlimited   = "UNLIMITED"
	KindTimeLimited = "TIME_LIMITED"
)

// LicenseStatus enum values
const (
	StatusPending   = "PENDING"
	StatusActive    = "ACTIVE"
	StatusExpired   = "EXPIRED"
	StatusCancelled = "CANCELLED"
)

// License is an organization's paid right to offer a course to its members.
// At most one PENDING/ACTIVE license may exist per (organization, course).
type License struct {
	gorm.Model
	OrganizationID uint       `gorm:"not null;index" json:"organizationId"`
	CourseID       uint       `gorm:"not null;index" json:"courseId"`
	Kind           string     `gorm:"not null;type:varchar(20)" json:"kind"`
	Status         string     `gorm:"not null;type:varchar(20);default:'ACTIVE'" json:"status"`
	SeatCapacity   *int       `json:"seatCapacity"`                          // meaningful only for SEAT
	SeatsConsumed  int        `gorm:"not null;default:0" json:"seatsConsumed"` // 0 <= consumed <= capacity
	ValidFrom      time.Time  `gorm:"not null" json:"validFrom"`
	ValidUntil     *time.Time `json:"validUntil"`
	AmountPaid     float64    `gorm:"not null;default:0" json:"amountPaid"`
	SubscriptionID string     `json:"subscriptionId"` // recurring-billing reference
	CancelReason   string     `gorm:"type:text" json:"cancelReason"`
	ReminderSent   bool       `gorm:"default:false" json:"reminderSent"` // expiry reminder already mailed
	IsDeleted      bool       `gorm:"default:false" json:"isDeleted"`
}

func (License) TableName() string {
	return "licenses"
}

// Expired reports whether the validity window has passed at t.
func (l *License) Expired(t time.Time) bool {
	return l.ValidUntil != nil && l.ValidUntil.Before(t)
}

// Authorizes reports whether the license currently backs a grant: it must be
// ACTIVE and inside its validity window. Status alone is not trusted because
// the expiry sweep may not have run yet.
func (l *License) Authorizes(t time.Time) bool {
	if l.Status != StatusActive {
		return false
	}
	if l.ValidFrom.After(t) {
		return false
	}
	return !l.Expired(t)
}

// Package entitlement owns the license and user-access records: seat math,
// validity windows, grants and revocations.
package entitlement

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"lms/models"
	courseModels "lms/models/course"
	licenseModels "lms/models/license"
	"lms/services/apperr"
)

// Ledger enforces license lifecycle and seat accounting. All seat
// check-and-increment paths use conditional updates guarded by
// RowsAffected, so concurrent assignments cannot oversubscribe a license.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// CreateLicenseInput carries the purchase facts confirmed by the payment
// collaborator. AutoAssignUserID is set on self-service purchases to grant
// the buyer's seat in the same transaction.
type CreateLicenseInput struct {
	OrganizationID   uint
	CourseID         uint
	Kind             string
	SeatCapacity     *int
	ValidFrom        time.Time
	ValidUntil       *time.Time
	AmountPaid       float64
	SubscriptionID   string
	AutoAssignUserID *uint
	ActorID          uint
}

// CreateLicense records a paid entitlement for (organization, course).
// At most one PENDING/ACTIVE license may exist per pair.
func (l *Ledger) CreateLicense(input CreateLicenseInput) (*licenseModels.License, error) {
	switch input.Kind {
	case licenseModels.KindSeat:
		if input.SeatCapacity == nil || *input.SeatCapacity <= 0 {
			return nil, apperr.BadRequestf("SEAT license requires a positive seat capacity!")
		}
	case licenseModels.KindUnlimited, licenseModels.KindTimeLimited:
		input.SeatCapacity = nil
	default:
		return nil, apperr.BadRequestf("Unknown license kind: %s", input.Kind)
	}

	var targetCourse courseModels.Course
	if err := l.db.Where("id = ? AND is_deleted = ? AND is_published = ?", input.CourseID, false, true).First(&targetCourse).Error; err != nil {
		return nil, apperr.NotFoundf("Course not found or not published!")
	}

	var existing licenseModels.License
	err := l.db.Where("organization_id = ? AND course_id = ? AND status IN ? AND is_deleted = ?",
		input.OrganizationID, input.CourseID,
		[]string{licenseModels.StatusPending, licenseModels.StatusActive}, false).
		First(&existing).Error
	if err == nil {
		return nil, apperr.Conflictf("An active or pending license already exists for this course!")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	validFrom := input.ValidFrom
	if validFrom.IsZero() {
		validFrom = time.Now()
	}

	lic := licenseModels.License{
		OrganizationID: input.OrganizationID,
		CourseID:       input.CourseID,
		Kind:           input.Kind,
		Status:         licenseModels.StatusActive,
		SeatCapacity:   input.SeatCapacity,
		ValidFrom:      validFrom,
		ValidUntil:     input.ValidUntil,
		AmountPaid:     input.AmountPaid,
		SubscriptionID: input.SubscriptionID,
	}

	tx := l.db.Begin()
	if err := tx.Create(&lic).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if input.AutoAssignUserID != nil {
		if _, err := l.grantAccess(tx, &lic, []uint{*input.AutoAssignUserID}, input.ActorID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &lic, nil
}

// AssignUsers grants access to userIDs from a license. Users already
// holding an active grant are skipped; the call succeeds partially and
// returns only the newly created grants. If no new grant is possible the
// call fails with CONFLICT.
func (l *Ledger) AssignUsers(licenseID uint, userIDs []uint, actorID uint) ([]licenseModels.UserAccess, error) {
	if len(userIDs) == 0 {
		return nil, apperr.BadRequestf("No users to assign!")
	}

	var lic licenseModels.License
	if err := l.db.Where("id = ? AND is_deleted = ?", licenseID, false).First(&lic).Error; err != nil {
		return nil, apperr.NotFoundf("License not found!")
	}
	if lic.Status != licenseModels.StatusActive {
		return nil, apperr.BadRequestf("License is %s, users can only be assigned from an active license!", lic.Status)
	}
	if lic.Expired(time.Now()) {
		return nil, apperr.BadRequestf("License validity ended on %s!", lic.ValidUntil.Format("2006-01-02"))
	}

	var memberCount int64
	l.db.Model(&models.User{}).Where("id IN ? AND organization_id = ? AND is_deleted = ?", userIDs, lic.OrganizationID, false).Count(&memberCount)
	if memberCount != int64(len(userIDs)) {
		return nil, apperr.BadRequestf("All users must belong to the licensing organization!")
	}

	// Skip users who already hold active access to this course.
	var held []licenseModels.UserAccess
	l.db.Where("user_id IN ? AND course_id = ? AND status = ? AND is_deleted = ?",
		userIDs, lic.CourseID, licenseModels.AccessActive, false).Find(&held)
	heldBy := make(map[uint]bool, len(held))
	for _, a := range held {
		heldBy[a.UserID] = true
	}
	newUserIDs := make([]uint, 0, len(userIDs))
	for _, id := range userIDs {
		if !heldBy[id] {
			newUserIDs = append(newUserIDs, id)
		}
	}
	if len(newUserIDs) == 0 {
		return nil, apperr.Conflictf("All requested users already hold active access to this course!")
	}

	if lic.Kind == licenseModels.KindSeat {
		available := *lic.SeatCapacity - lic.SeatsConsumed
		if len(newUserIDs) > available {
			return nil, apperr.BadRequestf("Only %d seat(s) available on this license, %d requested!", available, len(newUserIDs))
		}
	}

	tx := l.db.Begin()
	grants, err := l.grantAccess(tx, &lic, newUserIDs, actorID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// grantAccess reserves seats and creates the grants inside tx. The seat
// reservation is a conditional update: it only succeeds while
// seats_consumed + n still fits inside the capacity, which is what makes
// concurrent assignments safe.
func (l *Ledger) grantAccess(tx *gorm.DB, lic *licenseModels.License, userIDs []uint, actorID uint) ([]licenseModels.UserAccess, error) {
	n := len(userIDs)

	if lic.Kind == licenseModels.KindSeat {
		res := tx.Model(&licenseModels.License{}).
			Where("id = ? AND status = ? AND seats_consumed + ? <= seat_capacity", lic.ID, licenseModels.StatusActive, n).
			Update("seats_consumed", gorm.Expr("seats_consumed + ?", n))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			available := 0
			if lic.SeatCapacity != nil {
				available = *lic.SeatCapacity - lic.SeatsConsumed
				if available < 0 {
					available = 0
				}
			}
			return nil, apperr.BadRequestf("Only %d seat(s) available on this license, %d requested!", available, n)
		}
		lic.SeatsConsumed += n
	}

	grants := make([]licenseModels.UserAccess, 0, n)
	for _, userID := range userIDs {
		access := licenseModels.UserAccess{
			UserID:         userID,
			LicenseID:      lic.ID,
			OrganizationID: lic.OrganizationID,
			CourseID:       lic.CourseID,
			Status:         licenseModels.AccessActive,
			GrantedBy:      actorID,
		}
		if err := tx.Create(&access).Error; err != nil {
			return nil, err
		}
		grants = append(grants, access)
	}

	if err := tx.Model(&courseModels.Course{}).Where("id = ?", lic.CourseID).
		Update("enrollment_count", gorm.Expr("enrollment_count + ?", n)).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// RevokeAccess flips an active grant to REVOKED and releases its seat.
func (l *Ledger) RevokeAccess(accessID uint, actorID uint, reason string) (*licenseModels.UserAccess, error) {
	var access licenseModels.UserAccess
	if err := l.db.Where("id = ? AND is_deleted = ?", accessID, false).First(&access).Error; err != nil {
		return nil, apperr.NotFoundf("Access grant not found!")
	}
	if access.Status != licenseModels.AccessActive {
		return nil, apperr.BadRequestf("Access is %s, only active grants can be revoked!", access.Status)
	}

	var lic licenseModels.License
	if err := l.db.Where("id = ?", access.LicenseID).First(&lic).Error; err != nil {
		return nil, apperr.NotFoundf("Owning license not found!")
	}

	now := time.Now()
	tx := l.db.Begin()
	if err := tx.Model(&access).Updates(map[string]interface{}{
		"status":        licenseModels.AccessRevoked,
		"revoked_by":    actorID,
		"revoked_at":    now,
		"revoke_reason": reason,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if lic.Kind == licenseModels.KindSeat {
		// Floored at 0: a revoke never drives the counter negative.
		if err := tx.Model(&licenseModels.License{}).
			Where("id = ? AND seats_consumed > 0", lic.ID).
			Update("seats_consumed", gorm.Expr("seats_consumed - 1")).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &access, nil
}

// HasAccess reports whether user currently holds a usable entitlement for
// the course. Both the grant and its owning license are re-checked at read
// time: a denormalized ACTIVE grant is not trusted against an expired or
// cancelled license.
func (l *Ledger) HasAccess(userID, courseID, orgID uint) (bool, error) {
	var grants []licenseModels.UserAccess
	query := l.db.Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?",
		userID, courseID, licenseModels.AccessActive, false)
	if orgID != 0 {
		query = query.Where("organization_id = ?", orgID)
	}
	if err := query.Find(&grants).Error; err != nil {
		return false, err
	}

	now := time.Now()
	for _, grant := range grants {
		var lic licenseModels.License
		if err := l.db.Where("id = ? AND is_deleted = ?", grant.LicenseID, false).First(&lic).Error; err != nil {
			continue
		}
		if lic.Authorizes(now) {
			return true, nil
		}
	}
	return false, nil
}

// CancelLicense cancels a license and revokes every active grant drawn
// from it. SEAT counters are reset to zero as the grants go.
func (l *Ledger) CancelLicense(licenseID uint, reason string) (*licenseModels.License, error) {
	var lic licenseModels.License
	if err := l.db.Where("id = ? AND is_deleted = ?", licenseID, false).First(&lic).Error; err != nil {
		return nil, apperr.NotFoundf("License not found!")
	}
	if lic.Status != licenseModels.StatusActive && lic.Status != licenseModels.StatusPending {
		return nil, apperr.BadRequestf("License is already %s!", lic.Status)
	}

	now := time.Now()
	tx := l.db.Begin()

	if err := tx.Model(&licenseModels.UserAccess{}).
		Where("license_id = ? AND status = ? AND is_deleted = ?", lic.ID, licenseModels.AccessActive, false).
		Updates(map[string]interface{}{
			"status":        licenseModels.AccessRevoked,
			"revoked_at":    now,
			"revoke_reason": "License cancelled",
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{
		"status":        licenseModels.StatusCancelled,
		"cancel_reason": reason,
	}
	if lic.Kind == licenseModels.KindSeat {
		updates["seats_consumed"] = 0
	}
	if err := tx.Model(&lic).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &lic, nil
}

// ExpireDueLicenses moves every ACTIVE license past its validity window to
// EXPIRED. Idempotent by construction, so the sweep is safe to run on any
// cadence and concurrently with itself. Grants are not touched: HasAccess
// already treats an expired license as non-authorizing.
func (l *Ledger) ExpireDueLicenses() (int64, error) {
	res := l.db.Model(&licenseModels.License{}).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ? AND is_deleted = ?",
			licenseModels.StatusActive, time.Now(), false).
		Update("status", licenseModels.StatusExpired)
	return res.RowsAffected, res.Error
}

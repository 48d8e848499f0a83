package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	licenseModels "lms/models/license"
	"lms/services/apperr"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func seedOrgCourseUsers(t *testing.T, db *gorm.DB, memberCount int) (orgID, courseID uint, userIDs []uint) {
	t.Helper()

	org := models.Organization{Name: "Acme Corp", ContactEmail: "admin@acme.test"}
	require.NoError(t, db.Create(&org).Error)

	target := courseModels.Course{
		OrganizationID: org.ID,
		Title:          "Go Fundamentals",
		Status:         courseModels.CourseActive,
		Price:          499,
		IsPublished:    true,
	}
	require.NoError(t, db.Create(&target).Error)

	for i := 0; i < memberCount; i++ {
		user := models.User{
			Name:           "Member",
			Email:          string(rune('a'+i)) + "@acme.test",
			Password:       "hashed",
			OrganizationID: org.ID,
		}
		require.NoError(t, db.Create(&user).Error)
		userIDs = append(userIDs, user.ID)
	}
	return org.ID, target.ID, userIDs
}

func createSeatLicense(t *testing.T, ledger *Ledger, orgID, courseID uint, seats int) *licenseModels.License {
	t.Helper()
	lic, err := ledger.CreateLicense(CreateLicenseInput{
		OrganizationID: orgID,
		CourseID:       courseID,
		Kind:           licenseModels.KindSeat,
		SeatCapacity:   &seats,
		AmountPaid:     499,
	})
	require.NoError(t, err)
	return lic
}

func TestCreateLicenseValidation(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, _ := seedOrgCourseUsers(t, db, 1)

	_, err := ledger.CreateLicense(CreateLicenseInput{
		OrganizationID: orgID, CourseID: courseID, Kind: "WEIRD",
	})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	zero := 0
	_, err = ledger.CreateLicense(CreateLicenseInput{
		OrganizationID: orgID, CourseID: courseID, Kind: licenseModels.KindSeat, SeatCapacity: &zero,
	})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = ledger.CreateLicense(CreateLicenseInput{
		OrganizationID: orgID, CourseID: 9999, Kind: licenseModels.KindUnlimited,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateLicenseRejectsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, _ := seedOrgCourseUsers(t, db, 1)

	createSeatLicense(t, ledger, orgID, courseID, 5)

	_, err := ledger.CreateLicense(CreateLicenseInput{
		OrganizationID: orgID, CourseID: courseID, Kind: licenseModels.KindUnlimited,
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAssignUsersConsumesSeats(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, userIDs := seedOrgCourseUsers(t, db, 6)

	lic := createSeatLicense(t, ledger, orgID, courseID, 5)

	grants, err := ledger.AssignUsers(lic.ID, userIDs[:3], userIDs[0])
	require.NoError(t, err)
	assert.Len(t, grants, 3)

	var reloaded licenseModels.License
	require.NoError(t, db.First(&reloaded, lic.ID).Error)
	assert.Equal(t, 3, reloaded.SeatsConsumed)

	// 2 seats left, 3 requested: nothing is granted.
	_, err = ledger.AssignUsers(lic.ID, userIDs[3:6], userIDs[0])
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Only 2 seat(s) available")

	require.NoError(t, db.First(&reloaded, lic.ID).Error)
	assert.Equal(t, 3, reloaded.SeatsConsumed)
}

func TestAssignUsersSkipsExistingHolders(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, userIDs := seedOrgCourseUsers(t, db, 3)

	lic := createSeatLicense(t, ledger, orgID, courseID, 5)

	_, err := ledger.AssignUsers(lic.ID, userIDs[:2], userIDs[0])
	require.NoError(t, err)

	// One holder, one new user: only the new grant is created.
	grants, err := ledger.AssignUsers(lic.ID, []uint{userIDs[1], userIDs[2]}, userIDs[0])
	require.NoError(t, err)
	assert.Len(t, grants, 1)
	assert.Equal(t, userIDs[2], grants[0].UserID)

	// All holders already: conflict.
	_, err = ledger.AssignUsers(lic.ID, userIDs[:2], userIDs[0])
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAssignUsersRejectsForeignMembers(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, userIDs := seedOrgCourseUsers(t, db, 1)

	outsider := models.User{Email: "out@other.test", Password: "hashed", OrganizationID: orgID + 100}
	require.NoError(t, db.Create(&outsider).Error)

	lic := createSeatLicense(t, ledger, orgID, courseID, 5)

	_, err := ledger.AssignUsers(lic.ID, []uint{userIDs[0], outsider.ID}, userIDs[0])
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestRevokeAccessFreesSeat(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, userIDs := seedOrgCourseUsers(t, db, 2)

	lic := createSeatLicense(t, ledger, orgID, courseID, 1)

	grants, err := ledger.AssignUsers(lic.ID, userIDs[:1], userIDs[0])
	require.NoError(t, err)

	// License is full.
	_, err = ledger.AssignUsers(lic.ID, userIDs[1:2], userIDs[0])
	require.Error(t, err)

	access, err := ledger.RevokeAccess(grants[0].ID, userIDs[0], "left the team")
	require.NoError(t, err)
	assert.Equal(t, licenseModels.AccessRevoked, access.Status)

	var reloaded licenseModels.License
	require.NoError(t, db.First(&reloaded, lic.ID).Error)
	assert.Equal(t, 0, reloaded.SeatsConsumed)

	// The freed seat can be reassigned.
	_, err = ledger.AssignUsers(lic.ID, userIDs[1:2], userIDs[0])
	assert.NoError(t, err)

	// A revoked grant cannot be revoked again.
	_, err = ledger.RevokeAccess(grants[0].ID, userIDs[0], "again")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestHasAccessChecksOwningLicense(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, userIDs := seedOrgCourseUsers(t, db, 1)

	lic := createSeatLicense(t, ledger, orgID, courseID, 5)
	_, err := ledger.AssignUsers(lic.ID, userIDs[:1], userIDs[0])
	require.NoError(t, err)

	ok, err := ledger.HasAccess(userIDs[0], courseID, orgID)
	require.NoError(t, err)
	assert.True(t, ok)

	// An expired license stops authorizing even while the grant row stays
	// ACTIVE and the sweep has not run.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&licenseModels.License{}).Where("id = ?", lic.ID).
		Update("valid_until", past).Error)

	ok, err = ledger.HasAccess(userIDs[0], courseID, orgID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelLicenseRevokesGrants(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, userIDs := seedOrgCourseUsers(t, db, 3)

	lic := createSeatLicense(t, ledger, orgID, courseID, 5)
	_, err := ledger.AssignUsers(lic.ID, userIDs, userIDs[0])
	require.NoError(t, err)

	cancelled, err := ledger.CancelLicense(lic.ID, "switching vendors")
	require.NoError(t, err)
	assert.Equal(t, licenseModels.StatusCancelled, cancelled.Status)

	var reloaded licenseModels.License
	require.NoError(t, db.First(&reloaded, lic.ID).Error)
	assert.Equal(t, 0, reloaded.SeatsConsumed)

	var activeGrants int64
	db.Model(&licenseModels.UserAccess{}).
		Where("license_id = ? AND status = ?", lic.ID, licenseModels.AccessActive).
		Count(&activeGrants)
	assert.Zero(t, activeGrants)

	for _, userID := range userIDs {
		ok, err := ledger.HasAccess(userID, courseID, orgID)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	_, err = ledger.CancelLicense(lic.ID, "again")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestExpireDueLicensesIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	orgID, courseID, _ := seedOrgCourseUsers(t, db, 1)

	past := time.Now().Add(-time.Hour)
	lic, err := ledger.CreateLicense(CreateLicenseInput{
		OrganizationID: orgID,
		CourseID:       courseID,
		Kind:           licenseModels.KindTimeLimited,
		ValidFrom:      past.Add(-24 * time.Hour),
		ValidUntil:     &past,
	})
	require.NoError(t, err)

	flipped, err := ledger.ExpireDueLicenses()
	require.NoError(t, err)
	assert.EqualValues(t, 1, flipped)

	var reloaded licenseModels.License
	require.NoError(t, db.First(&reloaded, lic.ID).Error)
	assert.Equal(t, licenseModels.StatusExpired, reloaded.Status)

	// Second sweep finds nothing.
	flipped, err = ledger.ExpireDueLicenses()
	require.NoError(t, err)
	assert.Zero(t, flipped)
}

package utils

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	licenseModels "lms/models/license"
)

// LicenseExpirer is the sweep entry point, implemented by the entitlement
// ledger. The sweep itself is idempotent so overlapping runs are harmless.
type LicenseExpirer interface {
	ExpireDueLicenses() (int64, error)
}

// InitializeLicenseScheduler starts the periodic license sweeps: an hourly
// expiry pass and a daily reminder pass for licenses expiring soon.
func InitializeLicenseScheduler(expirer LicenseExpirer) {
	log.Println("[LICENSE-SCHEDULER] Initializing license scheduler...")

	c := cron.New()

	c.AddFunc("0 * * * *", func() {
		RunLicenseExpirySweep(expirer)
	})

	// Daily at 9 AM: expiry reminders
	c.AddFunc("0 9 * * *", func() {
		ProcessExpiringLicenses()
	})

	c.Start()
	log.Println("[LICENSE-SCHEDULER] License scheduler started")
}

// RunLicenseExpirySweep expires due licenses and notifies the owning
// organizations about licenses that just lapsed.
func RunLicenseExpirySweep(expirer LicenseExpirer) {
	expired, err := expirer.ExpireDueLicenses()
	if err != nil {
		log.Printf("[LICENSE-SCHEDULER] Error expiring licenses: %v", err)
		return
	}
	if expired == 0 {
		return
	}
	log.Printf("[LICENSE-SCHEDULER] Expired %d license(s)", expired)

	db := database.Database.Db
	now := time.Now()

	// Only licenses flipped within the last hour, so repeated sweeps do not
	// re-notify.
	var lapsed []licenseModels.License
	db.Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", licenseModels.StatusExpired, now).
		Where("updated_at > ?", now.Add(-time.Hour)).
		Find(&lapsed)

	for _, lic := range lapsed {
		org, licensedCourse := orgAndCourse(lic)
		if org == nil || licensedCourse == nil {
			continue
		}
		SendLicenseExpiredEmail(org.ContactEmail, org.Name, licensedCourse.Title)
	}
}

// ProcessExpiringLicenses sends reminder emails for active licenses
// expiring within the next three days.
func ProcessExpiringLicenses() {
	db := database.Database.Db
	now := time.Now()
	horizon := now.AddDate(0, 0, 3)

	var expiring []licenseModels.License
	if err := db.Where("status = ? AND reminder_sent = false AND valid_until IS NOT NULL", licenseModels.StatusActive).
		Where("valid_until BETWEEN ? AND ?", now, horizon).
		Find(&expiring).Error; err != nil {
		log.Printf("[LICENSE-SCHEDULER] Error fetching expiring licenses: %v", err)
		return
	}

	log.Printf("[LICENSE-SCHEDULER] Found %d license(s) expiring soon", len(expiring))

	for _, lic := range expiring {
		org, licensedCourse := orgAndCourse(lic)
		if org == nil || licensedCourse == nil {
			continue
		}
		SendLicenseExpiryReminder(org.ContactEmail, org.Name, licensedCourse.Title, lic.ValidUntil.Format("January 2, 2006"))
		db.Model(&lic).Update("reminder_sent", true)
		log.Printf("[LICENSE-SCHEDULER] Sent expiry reminder for license %d to %s", lic.ID, org.ContactEmail)
	}
}

func orgAndCourse(lic licenseModels.License) (*models.Organization, *courseModels.Course) {
	db := database.Database.Db
	var org models.Organization
	if err := db.Where("id = ?", lic.OrganizationID).First(&org).Error; err != nil {
		log.Printf("[LICENSE-SCHEDULER] Error fetching organization %d: %v", lic.OrganizationID, err)
		return nil, nil
	}
	var licensedCourse courseModels.Course
	if err := db.Where("id = ?", lic.CourseID).First(&licensedCourse).Error; err != nil {
		log.Printf("[LICENSE-SCHEDULER] Error fetching course %d: %v", lic.CourseID, err)
		return nil, nil
	}
	return &org, &licensedCourse
}

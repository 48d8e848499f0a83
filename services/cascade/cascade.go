// Package cascade runs the side effects fired when an enrollment first
// reaches 100%: completion notification and certificate issuance. Both
// steps happen after the progress transaction has committed and neither can
// roll the completion back.
package cascade

import (
	"log"
	"time"

	"lms/models"
	courseModels "lms/models/course"
)

// CertificateMeta is the enrollment snapshot passed to the certificate
// collaborator as certificate metadata.
type CertificateMeta struct {
	CompletedAt      time.Time
	TimeSpentMinutes int
	AverageQuizScore int
}

// CertificateIssuer issues course-completion certificates. IssueOrGet is
// idempotent: if a non-revoked certificate already exists for
// (user, course) it returns the existing one.
type CertificateIssuer interface {
	IssueOrGet(orgID, userID, courseID uint, meta CertificateMeta) (*courseModels.Certificate, error)
}

// Notifier dispatches a notification fact. Fire-and-forget from the
// cascade's point of view.
type Notifier interface {
	Notify(user *models.User, orgID uint, event string, payload map[string]interface{}) error
}

const EventCourseCompleted = "COURSE_COMPLETED"

// Runner orchestrates the completion cascade.
type Runner struct {
	issuer   CertificateIssuer
	notifier Notifier
}

func NewRunner(issuer CertificateIssuer, notifier Notifier) *Runner {
	return &Runner{issuer: issuer, notifier: notifier}
}

// Run fires the cascade for a freshly completed enrollment. Each step is
// independently fallible: failures are logged with enough context to retry
// manually and never surfaced to the caller, because the learner-visible
// completion state is already committed.
func (r *Runner) Run(enrollment *courseModels.Enrollment, user *models.User, completedCourse *courseModels.Course) {
	meta := BuildMeta(enrollment)

	if err := r.notifier.Notify(user, enrollment.OrganizationID, EventCourseCompleted, map[string]interface{}{
		"course_id":    completedCourse.ID,
		"course_title": completedCourse.Title,
		"completed_at": meta.CompletedAt,
	}); err != nil {
		log.Printf("[CASCADE] Notification failed for user=%d course=%d enrollment=%d: %v",
			enrollment.UserID, enrollment.CourseID, enrollment.ID, err)
	}

	if _, err := r.issuer.IssueOrGet(enrollment.OrganizationID, enrollment.UserID, enrollment.CourseID, meta); err != nil {
		log.Printf("[CASCADE] Certificate issuance failed for user=%d course=%d enrollment=%d: %v",
			enrollment.UserID, enrollment.CourseID, enrollment.ID, err)
	}
}

// BuildMeta aggregates the enrollment snapshot into certificate metadata:
// completion date, total minutes spent across lessons, and the average of
// the best score per quiz.
func BuildMeta(enrollment *courseModels.Enrollment) CertificateMeta {
	meta := CertificateMeta{CompletedAt: time.Now()}
	if enrollment.CompletedAt != nil {
		meta.CompletedAt = *enrollment.CompletedAt
	}

	for _, lp := range enrollment.LessonProgress {
		meta.TimeSpentMinutes += lp.TimeSpentMinutes
	}

	if n := len(enrollment.QuizProgress); n > 0 {
		sum := 0
		for _, qp := range enrollment.QuizProgress {
			sum += qp.BestScore
		}
		meta.AverageQuizScore = sum / n
	}
	return meta
}

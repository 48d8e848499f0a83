// Package progress owns per-enrollment progress state: lesson completion,
// quiz attempts, percentage recomputation and the one-shot completion
// transition that triggers the certificate/notification cascade.
package progress

import (
	"math"
	"time"

	"gorm.io/gorm"

	"lms/models"
	courseModels "lms/models/course"
	licenseModels "lms/models/license"
	"lms/services/apperr"
	"lms/services/gate"
	"lms/services/grader"
)

// AccessChecker verifies entitlement for non-free courses. Implemented by
// the entitlement ledger.
type AccessChecker interface {
	HasAccess(userID, courseID, orgID uint) (bool, error)
}

// CourseCatalog supplies authoritative course metadata. Counts are fetched
// fresh on every recompute so percentages do not go stale when content
// changes after enrollment.
type CourseCatalog interface {
	CourseCounts(courseID uint) (lessons, quizzes int64, err error)
	IsCoursePublished(courseID uint) (bool, error)
}

// CompletionCascade fires the downstream side effects after a completion
// transition has committed.
type CompletionCascade interface {
	Run(enrollment *courseModels.Enrollment, user *models.User, completedCourse *courseModels.Course)
}

// Tracker mutates enrollment progress. Every progress-affecting mutation
// runs in one transaction per enrollment, and the ACTIVE→COMPLETED edge is
// a conditional update so two concurrent submissions can never both fire
// the cascade.
type Tracker struct {
	db      *gorm.DB
	access  AccessChecker
	catalog CourseCatalog
	cascade CompletionCascade
}

func NewTracker(db *gorm.DB, access AccessChecker, catalog CourseCatalog, cascade CompletionCascade) *Tracker {
	return &Tracker{db: db, access: access, catalog: catalog, cascade: cascade}
}

// Enroll creates (or reactivates) an enrollment. Free published courses
// enroll directly; paid courses require a verified entitlement.
func (t *Tracker) Enroll(userID, courseID uint) (*courseModels.Enrollment, error) {
	published, err := t.catalog.IsCoursePublished(courseID)
	if err != nil {
		return nil, err
	}
	if !published {
		return nil, apperr.NotFoundf("Course not found or not published!")
	}

	var target courseModels.Course
	if err := t.db.Where("id = ?", courseID).First(&target).Error; err != nil {
		return nil, apperr.NotFoundf("Course not found!")
	}

	var existing courseModels.Enrollment
	err = t.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error
	if err == nil {
		if existing.Status != courseModels.EnrollmentDropped {
			return nil, apperr.Conflictf("Already enrolled in this course!")
		}
		// Re-enrollment after a drop reactivates the existing record.
		now := time.Now()
		if err := t.db.Model(&existing).Updates(map[string]interface{}{
			"status":           courseModels.EnrollmentActive,
			"last_accessed_at": now,
		}).Error; err != nil {
			return nil, err
		}
		existing.Status = courseModels.EnrollmentActive
		existing.LastAccessedAt = &now
		return &existing, nil
	}

	if !target.IsFree {
		ok, err := t.access.HasAccess(userID, courseID, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Forbiddenf("No active license covers this course! Ask your organization administrator for a seat.")
		}
	}

	now := time.Now()
	enrollment := courseModels.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		OrganizationID: target.OrganizationID,
		Status:         courseModels.EnrollmentActive,
		LastAccessedAt: &now,
	}
	if err := t.db.Create(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Drop terminates an active enrollment.
func (t *Tracker) Drop(userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := t.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return nil, apperr.NotFoundf("Not enrolled in this course!")
	}
	if enrollment.Status != courseModels.EnrollmentActive {
		return nil, apperr.BadRequestf("Enrollment is %s and cannot be dropped!", enrollment.Status)
	}
	if err := t.db.Model(&enrollment).Update("status", courseModels.EnrollmentDropped).Error; err != nil {
		return nil, err
	}
	enrollment.Status = courseModels.EnrollmentDropped
	return &enrollment, nil
}

// RecordLessonProgress upserts one lesson's progress record, enforcing the
// sequential unlock gate, and recomputes the percentage.
func (t *Tracker) RecordLessonProgress(userID, courseID, lessonID uint, completed bool, timeSpentMinutes int) (*courseModels.Enrollment, error) {
	tx := t.db.Begin()
	enrollment, err := t.usableEnrollment(tx, userID, courseID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var lessons []courseModels.Lesson
	if err := tx.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Order("order_index asc").Find(&lessons).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	index := -1
	for i := range lessons {
		if lessons[i].ID == lessonID {
			index = i
			break
		}
	}
	if index < 0 {
		tx.Rollback()
		return nil, apperr.NotFoundf("Lesson not found in this course!")
	}
	if gate.LessonLocked(lessons, enrollment, index) {
		tx.Rollback()
		return nil, apperr.Forbiddenf("Lesson is locked! Complete \"%s\" first.", lessons[index-1].Title)
	}

	now := time.Now()
	upserted := false
	for i := range enrollment.LessonProgress {
		if enrollment.LessonProgress[i].LessonID == lessonID {
			record := &enrollment.LessonProgress[i]
			if completed && !record.Completed {
				record.CompletedAt = &now
			}
			record.Completed = record.Completed || completed
			record.TimeSpentMinutes += timeSpentMinutes
			upserted = true
			break
		}
	}
	if !upserted {
		record := courseModels.LessonProgress{
			LessonID:         lessonID,
			Completed:        completed,
			TimeSpentMinutes: timeSpentMinutes,
		}
		if completed {
			record.CompletedAt = &now
		}
		enrollment.LessonProgress = append(enrollment.LessonProgress, record)
	}

	fired, err := t.saveProgress(tx, enrollment, map[string]interface{}{
		"lesson_progress": enrollment.LessonProgress,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	t.afterCommit(enrollment, fired)
	return enrollment, nil
}

// RecordQuizAttempt gates, grades and records one quiz submission, then
// recomputes the percentage.
func (t *Tracker) RecordQuizAttempt(userID, courseID, quizID uint, answers []grader.SubmittedAnswer) (*grader.Result, *courseModels.Enrollment, error) {
	tx := t.db.Begin()
	enrollment, err := t.usableEnrollment(tx, userID, courseID)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	var quiz courseModels.Quiz
	if err := tx.Where("id = ? AND course_id = ? AND is_deleted = ? AND is_published = ?",
		quizID, courseID, false, true).First(&quiz).Error; err != nil {
		tx.Rollback()
		return nil, nil, apperr.NotFoundf("Quiz not found in this course!")
	}

	if gate.QuizLocked(&quiz, enrollment) {
		tx.Rollback()
		return nil, nil, apperr.Forbiddenf("Quiz is locked! Complete the required lessons first.")
	}
	history := enrollment.QuizProgressFor(quizID)
	if !gate.QuizRetakeAllowed(&quiz, history) {
		tx.Rollback()
		if history != nil && history.Passed() {
			return nil, nil, apperr.Forbiddenf("Quiz already passed, no retake needed!")
		}
		return nil, nil, apperr.Forbiddenf("Maximum attempts (%d) reached for this quiz!", *quiz.MaxAttempts)
	}

	result := grader.Grade(&quiz, answers)

	attempt := courseModels.QuizAttempt{
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
		Passed:      result.Passed,
		CompletedAt: time.Now(),
	}
	if history == nil {
		enrollment.QuizProgress = append(enrollment.QuizProgress, courseModels.QuizProgress{QuizID: quizID})
		history = &enrollment.QuizProgress[len(enrollment.QuizProgress)-1]
	}
	attempt.AttemptNumber = len(history.Attempts) + 1
	history.Attempts = append(history.Attempts, attempt)
	if result.Score > history.BestScore {
		history.BestScore = result.Score
	}

	fired, err := t.saveProgress(tx, enrollment, map[string]interface{}{
		"quiz_progress": enrollment.QuizProgress,
	})
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	t.afterCommit(enrollment, fired)
	return &result, enrollment, nil
}

// usableEnrollment loads the enrollment that may still accumulate
// progress. COMPLETED enrollments keep recording (status never regresses);
// DROPPED ones must re-enroll first.
func (t *Tracker) usableEnrollment(tx *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := tx.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return nil, apperr.NotFoundf("Not enrolled in this course!")
	}
	if enrollment.Status == courseModels.EnrollmentDropped {
		return nil, apperr.Forbiddenf("Enrollment was dropped! Re-enroll to continue.")
	}
	return &enrollment, nil
}

// saveProgress recomputes the percentage against fresh catalog counts and
// writes the mutation plus the completion transition in one transaction.
// The ACTIVE→COMPLETED edge is guarded by a conditional update; the
// returned flag is true only for the single mutation that wins it.
func (t *Tracker) saveProgress(tx *gorm.DB, enrollment *courseModels.Enrollment, updates map[string]interface{}) (bool, error) {
	percent, err := t.computePercent(enrollment)
	if err != nil {
		return false, err
	}
	enrollment.Progress = percent

	now := time.Now()
	updates["progress"] = percent
	updates["last_accessed_at"] = now
	enrollment.LastAccessedAt = &now

	if err := tx.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).Updates(updates).Error; err != nil {
		return false, err
	}

	if percent < 100 || enrollment.Status == courseModels.EnrollmentCompleted {
		return false, nil
	}

	res := tx.Model(&courseModels.Enrollment{}).
		Where("id = ? AND status = ?", enrollment.ID, courseModels.EnrollmentActive).
		Updates(map[string]interface{}{
			"status":       courseModels.EnrollmentCompleted,
			"completed_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	enrollment.Status = courseModels.EnrollmentCompleted
	enrollment.CompletedAt = &now
	return true, nil
}

// computePercent = round(100 × (completed lessons + passed quizzes) /
// (lesson count + quiz count)), with counts fetched fresh. A course with no
// content is 0% by definition, never complete.
func (t *Tracker) computePercent(enrollment *courseModels.Enrollment) (int, error) {
	lessons, quizzes, err := t.catalog.CourseCounts(enrollment.CourseID)
	if err != nil {
		return 0, err
	}
	total := lessons + quizzes
	if total == 0 {
		return 0, nil
	}

	completed := 0
	for _, lp := range enrollment.LessonProgress {
		if lp.Completed {
			completed++
		}
	}
	for i := range enrollment.QuizProgress {
		if enrollment.QuizProgress[i].Passed() {
			completed++
		}
	}

	percent := int(math.Round(float64(completed) / float64(total) * 100))
	if percent > 100 {
		percent = 100
	}
	return percent, nil
}

// afterCommit mirrors the percentage onto the access grant and fires the
// cascade when this mutation won the completion transition. External calls
// happen here, after the state-owning transaction has committed.
func (t *Tracker) afterCommit(enrollment *courseModels.Enrollment, fired bool) {
	accessUpdates := map[string]interface{}{"progress_percent": enrollment.Progress}
	if enrollment.Status == courseModels.EnrollmentCompleted {
		accessUpdates["status"] = licenseModels.AccessCompleted
	}
	t.db.Model(&licenseModels.UserAccess{}).
		Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?",
			enrollment.UserID, enrollment.CourseID, licenseModels.AccessActive, false).
		Updates(accessUpdates)

	if !fired || t.cascade == nil {
		return
	}

	var user models.User
	if err := t.db.Where("id = ?", enrollment.UserID).First(&user).Error; err != nil {
		return
	}
	var completedCourse courseModels.Course
	if err := t.db.Where("id = ?", enrollment.CourseID).First(&completedCourse).Error; err != nil {
		return
	}
	t.cascade.Run(enrollment, &user, &completedCourse)
}

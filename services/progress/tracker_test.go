package progress

import (
	"testing"

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
	"lms/services/catalog"
	"lms/services/entitlement"
	"lms/services/grader"
)

type fakeCascade struct {
	runs []uint // course IDs, in firing order
}

func (f *fakeCascade) Run(enrollment *courseModels.Enrollment, user *models.User, completedCourse *courseModels.Course) {
	f.runs = append(f.runs, uint(completedCourse.ID))
}

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

type fixture struct {
	db      *gorm.DB
	tracker *Tracker
	cascade *fakeCascade
	user    models.User
	course  courseModels.Course
	lessons []courseModels.Lesson
	quiz    courseModels.Quiz
}

// newFixture seeds a free published course with 4 lessons and 1 quiz gated
// on the last lesson, so each unit is worth 20%.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	org := models.Organization{Name: "Acme Corp", ContactEmail: "admin@acme.test"}
	require.NoError(t, db.Create(&org).Error)

	f := &fixture{db: db, cascade: &fakeCascade{}}

	f.user = models.User{Name: "Learner", Email: "learner@acme.test", Password: "hashed", OrganizationID: org.ID}
	require.NoError(t, db.Create(&f.user).Error)

	f.course = courseModels.Course{
		OrganizationID: org.ID,
		Title:          "Go Fundamentals",
		Status:         courseModels.CourseActive,
		IsFree:         true,
		IsPublished:    true,
	}
	require.NoError(t, db.Create(&f.course).Error)

	titles := []string{"Basics", "Types", "Functions", "Concurrency"}
	for i, title := range titles {
		lesson := courseModels.Lesson{
			CourseID:    f.course.ID,
			Title:       title,
			OrderIndex:  i,
			IsPublished: true,
		}
		require.NoError(t, db.Create(&lesson).Error)
		f.lessons = append(f.lessons, lesson)
	}

	f.quiz = courseModels.Quiz{
		CourseID:          f.course.ID,
		Title:             "Final Quiz",
		PassingScore:      60,
		RequiredLessonIDs: []uint{f.lessons[3].ID},
		Questions: []courseModels.QuizQuestion{
			{ID: "q1", Points: 10, CorrectAnswers: []string{"goroutine"}},
		},
		IsPublished: true,
	}
	require.NoError(t, db.Create(&f.quiz).Error)

	ledger := entitlement.NewLedger(db)
	f.tracker = NewTracker(db, ledger, catalog.NewStore(db), f.cascade)
	return f
}

func (f *fixture) completeLesson(t *testing.T, index int) *courseModels.Enrollment {
	t.Helper()
	enrollment, err := f.tracker.RecordLessonProgress(f.user.ID, f.course.ID, f.lessons[index].ID, true, 10)
	require.NoError(t, err)
	return enrollment
}

func (f *fixture) passQuiz(t *testing.T) *courseModels.Enrollment {
	t.Helper()
	result, enrollment, err := f.tracker.RecordQuizAttempt(f.user.ID, f.course.ID, f.quiz.ID, []grader.SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"goroutine"}},
	})
	require.NoError(t, err)
	require.True(t, result.Passed)
	return enrollment
}

func TestEnrollFreeCourse(t *testing.T) {
	f := newFixture(t)

	enrollment, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	assert.Equal(t, 0, enrollment.Progress)

	_, err = f.tracker.Enroll(f.user.ID, f.course.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestEnrollPaidCourseRequiresEntitlement(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.course).Update("is_free", false).Error)

	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// A granted seat opens enrollment.
	seats := 1
	ledger := entitlement.NewLedger(f.db)
	lic, err := ledger.CreateLicense(entitlement.CreateLicenseInput{
		OrganizationID: f.user.OrganizationID,
		CourseID:       f.course.ID,
		Kind:           licenseModels.KindSeat,
		SeatCapacity:   &seats,
	})
	require.NoError(t, err)
	_, err = ledger.AssignUsers(lic.ID, []uint{f.user.ID}, f.user.ID)
	require.NoError(t, err)

	_, err = f.tracker.Enroll(f.user.ID, f.course.ID)
	assert.NoError(t, err)
}

func TestEnrollUnpublishedCourse(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.course).Update("is_published", false).Error)

	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestLessonsUnlockSequentially(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)

	// Lesson 3 is locked until lessons 1 and 2 are done.
	_, err = f.tracker.RecordLessonProgress(f.user.ID, f.course.ID, f.lessons[2].ID, true, 5)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Contains(t, err.Error(), f.lessons[1].Title)

	f.completeLesson(t, 0)
	f.completeLesson(t, 1)
	enrollment := f.completeLesson(t, 2)

	// 3 of 5 units.
	assert.Equal(t, 60, enrollment.Progress)
}

func TestLessonProgressAccumulatesTime(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)

	f.completeLesson(t, 0)
	enrollment := f.completeLesson(t, 0)

	require.Len(t, enrollment.LessonProgress, 1)
	assert.Equal(t, 20, enrollment.LessonProgress[0].TimeSpentMinutes)
	assert.True(t, enrollment.LessonProgress[0].Completed)
	// Percentage counts the lesson once.
	assert.Equal(t, 20, enrollment.Progress)
}

func TestQuizLockedUntilRequiredLessons(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)

	_, _, err = f.tracker.RecordQuizAttempt(f.user.ID, f.course.ID, f.quiz.ID, []grader.SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"goroutine"}},
	})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCompletionCascadeFiresExactlyOnce(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)

	for i := range f.lessons {
		f.completeLesson(t, i)
	}
	assert.Empty(t, f.cascade.runs, "cascade must not fire below 100%")

	enrollment := f.passQuiz(t)
	assert.Equal(t, 100, enrollment.Progress)
	assert.Equal(t, courseModels.EnrollmentCompleted, enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)
	assert.Equal(t, []uint{uint(f.course.ID)}, f.cascade.runs)

	// Further mutations never re-fire the cascade or regress the status.
	enrollment = f.completeLesson(t, 0)
	assert.Equal(t, courseModels.EnrollmentCompleted, enrollment.Status)
	assert.Len(t, f.cascade.runs, 1)
}

func TestCompletionMirroredOntoAccessGrant(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.course).Update("is_free", false).Error)

	ledger := entitlement.NewLedger(f.db)
	lic, err := ledger.CreateLicense(entitlement.CreateLicenseInput{
		OrganizationID: f.user.OrganizationID,
		CourseID:       f.course.ID,
		Kind:           licenseModels.KindUnlimited,
	})
	require.NoError(t, err)
	_, err = ledger.AssignUsers(lic.ID, []uint{f.user.ID}, f.user.ID)
	require.NoError(t, err)

	_, err = f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)
	for i := range f.lessons {
		f.completeLesson(t, i)
	}
	f.passQuiz(t)

	var access licenseModels.UserAccess
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", f.user.ID, f.course.ID).First(&access).Error)
	assert.Equal(t, licenseModels.AccessCompleted, access.Status)
	require.NotNil(t, access.ProgressPercent)
	assert.Equal(t, 100, *access.ProgressPercent)
}

func TestQuizRetakeLimit(t *testing.T) {
	f := newFixture(t)
	maxAttempts := 2
	require.NoError(t, f.db.Model(&f.quiz).Updates(map[string]interface{}{
		"max_attempts":        maxAttempts,
		"required_lesson_ids": nil,
	}).Error)

	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)

	wrong := []grader.SubmittedAnswer{{QuestionID: "q1", Answers: []string{"channel"}}}

	for i := 0; i < 2; i++ {
		result, _, err := f.tracker.RecordQuizAttempt(f.user.ID, f.course.ID, f.quiz.ID, wrong)
		require.NoError(t, err)
		assert.False(t, result.Passed)
	}

	_, _, err = f.tracker.RecordQuizAttempt(f.user.ID, f.course.ID, f.quiz.ID, wrong)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Maximum attempts (2)")
}

func TestQuizNoRetakeAfterPass(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.quiz).Update("required_lesson_ids", nil).Error)

	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)

	_, _, err = f.tracker.RecordQuizAttempt(f.user.ID, f.course.ID, f.quiz.ID, []grader.SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"goroutine"}},
	})
	require.NoError(t, err)

	_, _, err = f.tracker.RecordQuizAttempt(f.user.ID, f.course.ID, f.quiz.ID, []grader.SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"goroutine"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already passed")
}

func TestQuizBestScoreKept(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.quiz).Updates(map[string]interface{}{
		"required_lesson_ids": nil,
		"passing_score":       101, // unreachable, keeps attempts coming
	}).Error)
	require.NoError(t, f.db.Exec("UPDATE quizzes SET questions = ? WHERE id = ?",
		`[{"id":"q1","points":10,"correct_answers":["a"]},{"id":"q2","points":10,"correct_answers":["b"]}]`,
		f.quiz.ID).Error)

	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)

	_, enrollment, err := f.tracker.RecordQuizAttempt(f.user.ID, f.course.ID, f.quiz.ID, []grader.SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"a"}},
	})
	require.NoError(t, err)
	require.Len(t, enrollment.QuizProgress, 1)
	assert.Equal(t, 50, enrollment.QuizProgress[0].BestScore)

	// A worse attempt does not lower the best score.
	_, enrollment, err = f.tracker.RecordQuizAttempt(f.user.ID, f.course.ID, f.quiz.ID, []grader.SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"wrong"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, enrollment.QuizProgress[0].BestScore)
	assert.Len(t, enrollment.QuizProgress[0].Attempts, 2)
}

func TestDropAndReenroll(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)
	f.completeLesson(t, 0)

	dropped, err := f.tracker.Drop(f.user.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentDropped, dropped.Status)

	// Progress halts while dropped.
	_, err = f.tracker.RecordLessonProgress(f.user.ID, f.course.ID, f.lessons[1].ID, true, 5)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Re-enroll reactivates the same record with its progress intact.
	enrollment, err := f.tracker.Enroll(f.user.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(dropped.ID), uint(enrollment.ID))
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	assert.True(t, enrollment.LessonCompleted(f.lessons[0].ID))
}

func TestZeroContentCourseNeverCompletes(t *testing.T) {
	db := setupTestDB(t)

	org := models.Organization{Name: "Acme Corp", ContactEmail: "admin@acme.test"}
	require.NoError(t, db.Create(&org).Error)
	user := models.User{Email: "learner@acme.test", Password: "hashed", OrganizationID: org.ID}
	require.NoError(t, db.Create(&user).Error)
	emptyCourse := courseModels.Course{
		OrganizationID: org.ID, Title: "Empty", IsFree: true, IsPublished: true,
	}
	require.NoError(t, db.Create(&emptyCourse).Error)

	cascadeSpy := &fakeCascade{}
	tracker := NewTracker(db, entitlement.NewLedger(db), catalog.NewStore(db), cascadeSpy)

	enrollment, err := tracker.Enroll(user.ID, emptyCourse.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, enrollment.Progress)
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	assert.Empty(t, cascadeSpy.runs)
}

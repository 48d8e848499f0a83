package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnrollmentStatus enum values
const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
	EnrollmentDropped   = "DROPPED"
)

// LessonProgress is one lesson's completion record, embedded on the
// enrollment. At most one entry exists per lesson.
type LessonProgress struct {
	LessonID         uint       `json:"lesson_id"`
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completed_at"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
}

// QuizAttempt is a single graded submission for a quiz.
type QuizAttempt struct {
	AttemptNumber int       `json:"attempt_number"`
	Score         int       `json:"score"` // percent, 0-100
	TotalPoints   int       `json:"total_points"`
	Passed        bool      `json:"passed"`
	CompletedAt   time.Time `json:"completed_at"`
}

// QuizProgress is the attempt history for one quiz on an enrollment.
type QuizProgress struct {
	QuizID    uint          `json:"quiz_id"`
	Attempts  []QuizAttempt `json:"attempts"`
	BestScore int           `json:"best_score"`
}

// Passed reports whether any attempt cleared the passing threshold.
func (qp *QuizProgress) Passed() bool {
	for _, a := range qp.Attempts {
		if a.Passed {
			return true
		}
	}
	return false
}

// Enrollment tracks one user's pedagogical progress through a course,
// independent of which license authorized it. Lesson and quiz progress are
// embedded as JSON so a single read yields the whole snapshot needed for
// gating decisions.
type Enrollment struct {
	gorm.Model
	UserID         uint                                 `gorm:"not null;index:idx_enrollment_user_course" json:"user_id"`
	CourseID       uint                                 `gorm:"not null;index:idx_enrollment_user_course" json:"course_id"`
	OrganizationID uint                                 `gorm:"not null;index" json:"organization_id"` // the course's organization
	Status         string                               `gorm:"not null;type:varchar(20);default:'ACTIVE'" json:"status"`
	Progress       int                                  `json:"progress" gorm:"default:0"` // percent, 0-100
	LessonProgress datatypes.JSONSlice[LessonProgress]  `json:"lesson_progress"`
	QuizProgress   datatypes.JSONSlice[QuizProgress]    `json:"quiz_progress"`
	CompletedAt    *time.Time                           `json:"completed_at"`
	LastAccessedAt *time.Time                           `json:"last_accessed_at"`
	IsDeleted      bool                                 `gorm:"default:false"`
}

// LessonCompleted reports whether lessonID is marked completed on this
// enrollment's embedded progress.
func (e *Enrollment) LessonCompleted(lessonID uint) bool {
	for i := range e.LessonProgress {
		if e.LessonProgress[i].LessonID == lessonID {
			return e.LessonProgress[i].Completed
		}
	}
	return false
}

// QuizProgressFor returns the attempt history for quizID, or nil.
func (e *Enrollment) QuizProgressFor(quizID uint) *QuizProgress {
	for i := range e.QuizProgress {
		if e.QuizProgress[i].QuizID == quizID {
			return &e.QuizProgress[i]
		}
	}
	return nil
}

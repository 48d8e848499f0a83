package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	courseModels "lms/models/course"
)

func lessonWithID(id uint) courseModels.Lesson {
	return courseModels.Lesson{Model: gorm.Model{ID: id}}
}

func enrollmentWithCompleted(lessonIDs ...uint) *courseModels.Enrollment {
	e := &courseModels.Enrollment{}
	for _, id := range lessonIDs {
		e.LessonProgress = append(e.LessonProgress, courseModels.LessonProgress{LessonID: id, Completed: true})
	}
	return e
}

func TestLessonLockedFirstLessonAlwaysOpen(t *testing.T) {
	lessons := []courseModels.Lesson{lessonWithID(1), lessonWithID(2)}

	assert.False(t, LessonLocked(lessons, enrollmentWithCompleted(), 0))
}

func TestLessonLockedRequiresPreviousLesson(t *testing.T) {
	lessons := []courseModels.Lesson{lessonWithID(1), lessonWithID(2), lessonWithID(3)}

	assert.True(t, LessonLocked(lessons, enrollmentWithCompleted(), 1))
	assert.False(t, LessonLocked(lessons, enrollmentWithCompleted(1), 1))

	// Completing lesson 1 alone does not unlock lesson 3.
	assert.True(t, LessonLocked(lessons, enrollmentWithCompleted(1), 2))
	assert.False(t, LessonLocked(lessons, enrollmentWithCompleted(1, 2), 2))
}

func TestLessonLockedOutOfRangeIndex(t *testing.T) {
	lessons := []courseModels.Lesson{lessonWithID(1)}

	assert.False(t, LessonLocked(lessons, enrollmentWithCompleted(), -1))
	assert.False(t, LessonLocked(lessons, enrollmentWithCompleted(), 5))
}

func TestQuizLockedNoRequirements(t *testing.T) {
	quiz := &courseModels.Quiz{}

	assert.False(t, QuizLocked(quiz, enrollmentWithCompleted()))
}

func TestQuizLockedUntilRequiredLessonsComplete(t *testing.T) {
	quiz := &courseModels.Quiz{RequiredLessonIDs: []uint{1, 2}}

	assert.True(t, QuizLocked(quiz, enrollmentWithCompleted()))
	assert.True(t, QuizLocked(quiz, enrollmentWithCompleted(1)))
	assert.False(t, QuizLocked(quiz, enrollmentWithCompleted(1, 2)))
}

func TestQuizRetakeAllowedNoAttempts(t *testing.T) {
	maxAttempts := 1
	quiz := &courseModels.Quiz{MaxAttempts: &maxAttempts}

	assert.True(t, QuizRetakeAllowed(quiz, nil))
	assert.True(t, QuizRetakeAllowed(quiz, &courseModels.QuizProgress{}))
}

func TestQuizRetakeDeniedAfterPass(t *testing.T) {
	quiz := &courseModels.Quiz{}
	progress := &courseModels.QuizProgress{
		Attempts: []courseModels.QuizAttempt{{AttemptNumber: 1, Score: 80, Passed: true}},
	}

	assert.False(t, QuizRetakeAllowed(quiz, progress))
}

func TestQuizRetakeBoundedByMaxAttempts(t *testing.T) {
	maxAttempts := 2
	quiz := &courseModels.Quiz{MaxAttempts: &maxAttempts}
	progress := &courseModels.QuizProgress{
		Attempts: []courseModels.QuizAttempt{{AttemptNumber: 1, Score: 40}},
	}

	assert.True(t, QuizRetakeAllowed(quiz, progress))

	progress.Attempts = append(progress.Attempts, courseModels.QuizAttempt{AttemptNumber: 2, Score: 50})
	assert.False(t, QuizRetakeAllowed(quiz, progress))
}

func TestQuizRetakeUnlimitedWithoutMaxAttempts(t *testing.T) {
	quiz := &courseModels.Quiz{}
	progress := &courseModels.QuizProgress{}
	for i := 1; i <= 10; i++ {
		progress.Attempts = append(progress.Attempts, courseModels.QuizAttempt{AttemptNumber: i, Score: 10})
	}

	assert.True(t, QuizRetakeAllowed(quiz, progress))
}

func TestAttemptsRemaining(t *testing.T) {
	assert.Equal(t, -1, AttemptsRemaining(&courseModels.Quiz{}, nil))

	maxAttempts := 3
	quiz := &courseModels.Quiz{MaxAttempts: &maxAttempts}
	assert.Equal(t, 3, AttemptsRemaining(quiz, nil))

	progress := &courseModels.QuizProgress{
		Attempts: []courseModels.QuizAttempt{{AttemptNumber: 1}, {AttemptNumber: 2}},
	}
	assert.Equal(t, 1, AttemptsRemaining(quiz, progress))

	progress.Attempts = append(progress.Attempts,
		courseModels.QuizAttempt{AttemptNumber: 3},
		courseModels.QuizAttempt{AttemptNumber: 4})
	assert.Equal(t, 0, AttemptsRemaining(quiz, progress))
}

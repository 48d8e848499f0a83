// Package gate computes which lessons and quizzes are currently unlocked
// for a learner. All functions are pure over an enrollment snapshot: no
// storage access, so gating decisions cost one enrollment read.
package gate

import (
	courseModels "lms/models/course"
)

// LessonLocked reports whether the lesson at index is locked. The first
// lesson is never locked; every later lesson requires the previous one to
// be completed (sequential unlock).
func LessonLocked(lessons []courseModels.Lesson, enrollment *courseModels.Enrollment, index int) bool {
	if index <= 0 || index >= len(lessons) {
		return false
	}
	return !enrollment.LessonCompleted(lessons[index-1].ID)
}

// QuizLocked reports whether a quiz is locked. A quiz with no required
// lessons is always unlocked; otherwise every required lesson must be
// completed.
func QuizLocked(quiz *courseModels.Quiz, enrollment *courseModels.Enrollment) bool {
	for _, lessonID := range quiz.RequiredLessonIDs {
		if !enrollment.LessonCompleted(lessonID) {
			return true
		}
	}
	return false
}

// QuizRetakeAllowed reports whether another attempt may be submitted.
// A passed quiz needs no retake; an unpassed one is limited only by
// MaxAttempts when set.
func QuizRetakeAllowed(quiz *courseModels.Quiz, progress *courseModels.QuizProgress) bool {
	if progress == nil || len(progress.Attempts) == 0 {
		return true
	}
	if progress.Passed() {
		return false
	}
	if quiz.MaxAttempts == nil {
		return true
	}
	return len(progress.Attempts) < *quiz.MaxAttempts
}

// AttemptsRemaining returns how many attempts are left, or -1 for
// unlimited. Used to build actionable error messages.
func AttemptsRemaining(quiz *courseModels.Quiz, progress *courseModels.QuizProgress) int {
	if quiz.MaxAttempts == nil {
		return -1
	}
	used := 0
	if progress != nil {
		used = len(progress.Attempts)
	}
	remaining := *quiz.MaxAttempts - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

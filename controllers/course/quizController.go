package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/gate"
	"lms/services/grader"
)

// QuizWithState is a quiz enriched with the caller's gate state. Correct
// answers are stripped before shipping to the client.
type QuizWithState struct {
	courseModels.Quiz
	Locked        bool `json:"locked"`
	RetakeAllowed bool `json:"retake_allowed"`
	AttemptsUsed  int  `json:"attempts_used"`
	BestScore     int  `json:"best_score"`
	Passed        bool `json:"passed"`
}

// GetCourseQuizzes lists the course quizzes with locked/retake flags for
// the caller.
func (ctl *Controller) GetCourseQuizzes(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	var quizzes []courseModels.Quiz
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Order("order_index asc").Find(&quizzes).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quizzes!", nil)
	}

	result := make([]QuizWithState, len(quizzes))
	for i := range quizzes {
		quiz := quizzes[i]
		history := enrollment.QuizProgressFor(quiz.ID)

		entry := QuizWithState{
			Quiz:          quiz,
			Locked:        gate.QuizLocked(&quiz, &enrollment),
			RetakeAllowed: gate.QuizRetakeAllowed(&quiz, history),
		}
		if history != nil {
			entry.AttemptsUsed = len(history.Attempts)
			entry.BestScore = history.BestScore
			entry.Passed = history.Passed()
		}

		// Strip answers before shipping questions to the client
		for j := range entry.Questions {
			entry.Questions[j].CorrectAnswers = nil
		}
		if entry.Locked {
			entry.Questions = nil
		}
		result[i] = entry
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quizzes fetched successfully!", fiber.Map{
		"quizzes": result,
		"total":   len(result),
	})
}

// SubmitQuiz grades the caller's submission and records the attempt.
func (ctl *Controller) SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	quizID := c.Locals("quizID").(int)

	reqData, ok := c.Locals("validatedQuizSubmit").(*struct {
		Answers []grader.SubmittedAnswer `json:"answers"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, enrollment, err := ctl.Tracker.RecordQuizAttempt(userID, uint(courseID), uint(quizID), reqData.Answers)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted!", fiber.Map{
		"result":     result,
		"enrollment": enrollment,
	})
}

// GetUserProgress returns the caller's full progress snapshot for a
// course.
func (ctl *Controller) GetUserProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	var lessonCount, quizCount int64
	database.Database.Db.Model(&courseModels.Lesson{}).Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).Count(&lessonCount)
	database.Database.Db.Model(&courseModels.Quiz{}).Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).Count(&quizCount)

	completedLessons := 0
	for _, lp := range enrollment.LessonProgress {
		if lp.Completed {
			completedLessons++
		}
	}
	passedQuizzes := 0
	for i := range enrollment.QuizProgress {
		if enrollment.QuizProgress[i].Passed() {
			passedQuizzes++
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment":        enrollment,
		"completed_lessons": completedLessons,
		"total_lessons":     lessonCount,
		"passed_quizzes":    passedQuizzes,
		"total_quizzes":     quizCount,
	})
}

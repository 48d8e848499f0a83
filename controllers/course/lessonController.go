package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/gate"
)

// LessonWithState is a lesson enriched with the caller's gate state.
type LessonWithState struct {
	courseModels.Lesson
	Locked    bool `json:"locked"`
	Completed bool `json:"completed"`
}

// GetCourseLessons lists the course lessons in order, with per-lesson
// locked/completed flags computed from the caller's enrollment snapshot.
func (ctl *Controller) GetCourseLessons(c *fiber.Ctx) error {
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

	var lessons []courseModels.Lesson
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Order("order_index asc").Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}

	result := make([]LessonWithState, len(lessons))
	for i, lesson := range lessons {
		locked := gate.LessonLocked(lessons, &enrollment, i)
		entry := LessonWithState{
			Lesson:    lesson,
			Locked:    locked,
			Completed: enrollment.LessonCompleted(lesson.ID),
		}
		if locked {
			// Don't ship locked content to the client
			entry.Content = ""
			entry.VideoURL = ""
		}
		result[i] = entry
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons fetched successfully!", fiber.Map{
		"lessons": result,
		"total":   len(result),
	})
}

// CompleteLesson marks a lesson completed for the caller and returns the
// updated enrollment.
func (ctl *Controller) CompleteLesson(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	lessonID := c.Locals("lessonID").(int)

	reqData, _ := c.Locals("validatedLessonComplete").(*struct {
		TimeSpentMinutes int `json:"time_spent_minutes"`
	})
	timeSpent := 0
	if reqData != nil {
		timeSpent = reqData.TimeSpentMinutes
	}

	enrollment, err := ctl.Tracker.RecordLessonProgress(userID, uint(courseID), uint(lessonID), true, timeSpent)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as completed!", enrollment)
}

package courseValidator

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	"lms/services/grader"
)

// CourseList validates catalog pagination query params
func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page  *int `json:"page"`
			Limit *int `json:"limit"`
		})
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)

		if reqData.Page != nil && *reqData.Page < 1 {
			errors["page"] = "Page must be greater than 0!"
		}
		if reqData.Limit != nil && (*reqData.Limit < 1 || *reqData.Limit > 100) {
			errors["limit"] = "Limit must be between 1 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourseList", reqData)
		return c.Next()
	}
}

// CourseID parses the course ID from the URL
func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("courseId"))
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID in the URL!", nil)
		}

		c.Locals("courseID", id)
		return c.Next()
	}
}

// LessonID parses the lesson ID from the URL
func LessonID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("lessonId"))
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lesson ID in the URL!", nil)
		}

		c.Locals("lessonID", id)
		return c.Next()
	}
}

// QuizID parses the quiz ID from the URL
func QuizID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("quizId"))
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz ID in the URL!", nil)
		}

		c.Locals("quizID", id)
		return c.Next()
	}
}

// LessonComplete validates a lesson completion request
func LessonComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			TimeSpentMinutes int `json:"time_spent_minutes"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.TimeSpentMinutes < 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"time_spent_minutes": "Time spent cannot be negative!",
			})
		}

		c.Locals("validatedLessonComplete", reqData)
		return c.Next()
	}
}

// QuizSubmit validates a quiz submission
func QuizSubmit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Answers []grader.SubmittedAnswer `json:"answers"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.Answers) == 0 {
			errors["answers"] = "At least one answer is required!"
		}
		for _, ans := range reqData.Answers {
			if strings.TrimSpace(ans.QuestionID) == "" {
				errors["answers"] = "Every answer must reference a question ID!"
				break
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuizSubmit", reqData)
		return c.Next()
	}
}

// Pagination validates page/limit query params for admin listings
func Pagination() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil || limit < 1 || limit > 100 {
			limit = 10
		}

		c.Locals("page", page)
		c.Locals("limit", limit)
		return c.Next()
	}
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
)

func requireAdmin(c *fiber.Ctx) (*models.User, bool) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return nil, false
	}
	if user.Role != "ADMIN" && user.Role != "ORG_ADMIN" {
		return nil, false
	}
	return &user, true
}

// CreateCourse creates a draft course owned by the caller's organization.
func (ctl *Controller) CreateCourse(c *fiber.Ctx) error {
	user, ok := requireAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	reqData, ok := c.Locals("validatedCourse").(*struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Author      string  `json:"author"`
		Price       float64 `json:"price"`
		IsFree      bool    `json:"is_free"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	newCourse := courseModels.Course{
		OrganizationID: user.OrganizationID,
		Title:          reqData.Title,
		Description:    reqData.Description,
		Author:         reqData.Author,
		Price:          reqData.Price,
		IsFree:         reqData.IsFree,
		Status:         courseModels.CourseDraft,
	}

	if err := database.Database.Db.Create(&newCourse).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", newCourse)
}

// PublishCourse flips a draft course live.
func (ctl *Controller) PublishCourse(c *fiber.Ctx) error {
	user, ok := requireAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	courseID := c.Locals("courseID").(int)

	var target courseModels.Course
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", courseID, user.OrganizationID, false).First(&target).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if err := database.Database.Db.Model(&target).Updates(map[string]interface{}{
		"is_published": true,
		"status":       courseModels.CourseActive,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to publish course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course published successfully!", target)
}

// CreateLesson appends a lesson to a course.
func (ctl *Controller) CreateLesson(c *fiber.Ctx) error {
	user, ok := requireAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	courseID := c.Locals("courseID").(int)

	var target courseModels.Course
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", courseID, user.OrganizationID, false).First(&target).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedLesson").(*struct {
		Title           string `json:"title"`
		Content         string `json:"content"`
		VideoURL        string `json:"video_url"`
		OrderIndex      int    `json:"order_index"`
		DurationMinutes int    `json:"duration_minutes"`
		IsPublished     bool   `json:"is_published"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	lesson := courseModels.Lesson{
		CourseID:        uint(courseID),
		Title:           reqData.Title,
		Content:         reqData.Content,
		VideoURL:        reqData.VideoURL,
		OrderIndex:      reqData.OrderIndex,
		DurationMinutes: reqData.DurationMinutes,
		IsPublished:     reqData.IsPublished,
	}

	if err := database.Database.Db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

// CreateQuiz appends a quiz to a course.
func (ctl *Controller) CreateQuiz(c *fiber.Ctx) error {
	user, ok := requireAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	courseID := c.Locals("courseID").(int)

	var target courseModels.Course
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", courseID, user.OrganizationID, false).First(&target).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedQuiz").(*courseModels.Quiz)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	reqData.ID = 0
	reqData.CourseID = uint(courseID)

	if err := database.Database.Db.Create(reqData).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created successfully!", reqData)
}

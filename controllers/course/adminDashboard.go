package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
)

type EnrollmentRow struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"user_id"`
	UserName       string `json:"user_name"`
	UserEmail      string `json:"user_email"`
	Status         string `json:"status"`
	Progress       int    `json:"progress"`
	EnrolledAt     string `json:"enrolled_at"`
	LastAccessedAt string `json:"last_accessed_at"`
}

// AdminGetCourseEnrollments lists enrollments for a course owned by the
// caller's organization, with learner details.
func (ctl *Controller) AdminGetCourseEnrollments(c *fiber.Ctx) error {
	user, ok := requireAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	courseID := c.Locals("courseID").(int)

	var target courseModels.Course
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", courseID, user.OrganizationID, false).First(&target).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	page := c.Locals("page").(int)
	limit := c.Locals("limit").(int)
	offset := (page - 1) * limit

	var rows []EnrollmentRow
	var total int64

	database.Database.Db.Model(&courseModels.Enrollment{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Count(&total)

	err := database.Database.Db.Model(&courseModels.Enrollment{}).
		Select("enrollments.id, enrollments.user_id, users.name as user_name, users.email as user_email, enrollments.status, enrollments.progress, enrollments.created_at as enrolled_at, enrollments.last_accessed_at").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.course_id = ? AND enrollments.is_deleted = ?", courseID, false).
		Order("enrollments.created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"course":      target.Title,
		"enrollments": rows,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// AdminGetStats summarizes enrollment and completion activity for the
// caller's organization over the current week and month.
func (ctl *Controller) AdminGetStats(c *fiber.Ctx) error {
	user, ok := requireAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}

	var courseIDs []uint
	database.Database.Db.Model(&courseModels.Course{}).
		Where("organization_id = ? AND is_deleted = ?", user.OrganizationID, false).
		Pluck("id", &courseIDs)

	if len(courseIDs) == 0 {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Stats fetched successfully!", fiber.Map{
			"total_enrollments": 0,
			"total_completions": 0,
			"week":              fiber.Map{"enrollments": 0, "completions": 0},
			"month":             fiber.Map{"enrollments": 0, "completions": 0},
		})
	}

	weekStart := now.BeginningOfWeek()
	monthStart := now.BeginningOfMonth()

	var totalEnrollments, totalCompletions int64
	var weekEnrollments, weekCompletions int64
	var monthEnrollments, monthCompletions int64

	base := func() *gorm.DB {
		return database.Database.Db.Model(&courseModels.Enrollment{}).
			Where("course_id IN ? AND is_deleted = ?", courseIDs, false)
	}

	base().Count(&totalEnrollments)
	base().Where("status = ?", courseModels.EnrollmentCompleted).Count(&totalCompletions)
	base().Where("created_at >= ?", weekStart).Count(&weekEnrollments)
	base().Where("status = ? AND completed_at >= ?", courseModels.EnrollmentCompleted, weekStart).Count(&weekCompletions)
	base().Where("created_at >= ?", monthStart).Count(&monthEnrollments)
	base().Where("status = ? AND completed_at >= ?", courseModels.EnrollmentCompleted, monthStart).Count(&monthCompletions)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Stats fetched successfully!", fiber.Map{
		"total_enrollments": totalEnrollments,
		"total_completions": totalCompletions,
		"week": fiber.Map{
			"enrollments": weekEnrollments,
			"completions": weekCompletions,
		},
		"month": fiber.Map{
			"enrollments": monthEnrollments,
			"completions": monthCompletions,
		},
	})
}

package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/models"
	validators "lms/validators/course"
)

// SetupAdminCourseRoutes sets up course authoring and reporting routes
func SetupAdminCourseRoutes(app *fiber.App, ctl *controllers.Controller) {
	adminGroup := app.Group("/admin/course")

	manageCourses := middleware.CheckPermissionMiddleware(models.PermManageCourses)

	adminGroup.Post("/create", middleware.JWTMiddleware, manageCourses, validators.CreateCourse(), ctl.CreateCourse)
	adminGroup.Patch("/:courseId/publish", middleware.JWTMiddleware, manageCourses, validators.CourseID(), ctl.PublishCourse)
	adminGroup.Post("/:courseId/lesson", middleware.JWTMiddleware, manageCourses, validators.CourseID(), validators.CreateLesson(), ctl.CreateLesson)
	adminGroup.Post("/:courseId/quiz", middleware.JWTMiddleware, manageCourses, validators.CourseID(), validators.CreateQuiz(), ctl.CreateQuiz)
	adminGroup.Get("/:courseId/enrollments", middleware.JWTMiddleware, validators.CourseID(), validators.Pagination(), ctl.AdminGetCourseEnrollments)

	adminGroup.Get("/stats", middleware.JWTMiddleware, ctl.AdminGetStats)
}

package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"
)

// SetupCourseRoutes sets up all learner-facing course routes
func SetupCourseRoutes(app *fiber.App, ctl *controllers.Controller) {
	courseGroup := app.Group("/course")

	// Catalog
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), ctl.GetAllCourses)
	courseGroup.Get("/:courseId", middleware.JWTMiddleware, validators.CourseID(), ctl.GetCourseDetails)

	// Enrollment lifecycle
	courseGroup.Post("/:courseId/enroll", middleware.JWTMiddleware, validators.CourseID(), ctl.EnrollInCourse)
	courseGroup.Patch("/:courseId/drop", middleware.JWTMiddleware, validators.CourseID(), ctl.DropEnrollment)

	// Lessons
	courseGroup.Get("/:courseId/lessons", middleware.JWTMiddleware, validators.CourseID(), ctl.GetCourseLessons)
	courseGroup.Post("/:courseId/lesson/:lessonId/complete", middleware.JWTMiddleware, validators.CourseID(), validators.LessonID(), validators.LessonComplete(), ctl.CompleteLesson)

	// Quizzes
	courseGroup.Get("/:courseId/quizzes", middleware.JWTMiddleware, validators.CourseID(), ctl.GetCourseQuizzes)
	courseGroup.Post("/:courseId/quiz/:quizId/submit", middleware.JWTMiddleware, validators.CourseID(), validators.QuizID(), validators.QuizSubmit(), ctl.SubmitQuiz)

	// Progress snapshot
	courseGroup.Get("/:courseId/progress", middleware.JWTMiddleware, validators.CourseID(), ctl.GetUserProgress)

	// User enrollments and certificates
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, ctl.GetUserEnrollmentsList)
	userGroup.Get("/certificates", middleware.JWTMiddleware, ctl.GetUserCertificates)
}

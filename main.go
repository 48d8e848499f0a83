package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"lms/config"
	courseControllers "lms/controllers/course"
	licenseControllers "lms/controllers/license"
	"lms/database"
	authRoutes "lms/routers/authRoutes"
	courseRoutes "lms/routers/courseRoutes"
	licenseRoutes "lms/routers/licenseRoutes"
	"lms/services/cascade"
	"lms/services/catalog"
	"lms/services/certificate"
	"lms/services/entitlement"
	"lms/services/notify"
	"lms/services/progress"
	"lms/utils"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	db := database.Database.Db

	ledger := entitlement.NewLedger(db)
	courseCatalog := catalog.NewStore(db)
	issuer := certificate.NewIssuer(db)
	notifier := notify.NewService(config.AppConfig.NotifyWebhookURL)
	completionCascade := cascade.NewRunner(issuer, notifier)
	tracker := progress.NewTracker(db, ledger, courseCatalog, completionCascade)

	licenseCtl := licenseControllers.NewController(ledger)
	courseCtl := courseControllers.NewController(tracker, ledger)

	utils.InitializeLicenseScheduler(ledger)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	licenseRoutes.SetupLicenseRoutes(app, licenseCtl)
	courseRoutes.SetupCourseRoutes(app, courseCtl)
	courseRoutes.SetupAdminCourseRoutes(app, courseCtl)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}

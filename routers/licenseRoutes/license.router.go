package licenseRoutes

import (
	"github.com/gofiber/fiber/v2"

	licenseControllers "lms/controllers/license"
	"lms/middleware"
	"lms/models"
	licenseValidators "lms/validators/license"
)

// SetupLicenseRoutes sets up license purchase, assignment and revocation routes
func SetupLicenseRoutes(app *fiber.App, ctl *licenseControllers.Controller) {
	licenseGroup := app.Group("/license")

	manageLicenses := middleware.CheckPermissionMiddleware(models.PermManageLicenses)

	licenseGroup.Post("/purchase", middleware.JWTMiddleware, licenseValidators.PurchaseLicense(), ctl.PurchaseLicense)
	licenseGroup.Get("/list", middleware.JWTMiddleware, ctl.GetOrgLicenses)
	licenseGroup.Post("/:licenseId/assign", middleware.JWTMiddleware, manageLicenses, licenseValidators.LicenseID(), licenseValidators.AssignUsers(), ctl.AssignUsers)
	licenseGroup.Get("/:licenseId/accesses", middleware.JWTMiddleware, licenseValidators.LicenseID(), ctl.GetLicenseAccesses)
	licenseGroup.Patch("/:licenseId/cancel", middleware.JWTMiddleware, manageLicenses, licenseValidators.LicenseID(), licenseValidators.CancelLicense(), ctl.CancelLicense)

	accessGroup := app.Group("/access")
	accessGroup.Patch("/:accessId/revoke", middleware.JWTMiddleware, manageLicenses, licenseValidators.AccessID(), licenseValidators.RevokeAccess(), ctl.RevokeAccess)
}

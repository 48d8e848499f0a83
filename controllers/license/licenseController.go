package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	licenseModels "lms/models/license"
	"lms/services/entitlement"
	"lms/utils"
)

// Controller exposes the entitlement ledger over HTTP.
type Controller struct {
	Ledger *entitlement.Ledger
}

func NewController(ledger *entitlement.Ledger) *Controller {
	return &Controller{Ledger: ledger}
}

// PurchaseLicense handles a purchase confirmation from the payment
// collaborator. Organization admins buy licenses for their members;
// learners may buy a single seat for themselves.
func (ctl *Controller) PurchaseLicense(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("validatedPurchase").(*struct {
		CourseID       uint       `json:"course_id"`
		Kind           string     `json:"kind"`
		SeatCapacity   *int       `json:"seat_capacity"`
		ValidUntil     *time.Time `json:"valid_until"`
		AmountPaid     float64    `json:"amount_paid"`
		SubscriptionID string     `json:"subscription_id"`
		SelfAssign     bool       `json:"self_assign"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if !reqData.SelfAssign && user.Role != "ORG_ADMIN" && user.Role != "ADMIN" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only organization admins can buy licenses for members!", nil)
	}

	input := entitlement.CreateLicenseInput{
		OrganizationID: user.OrganizationID,
		CourseID:       reqData.CourseID,
		Kind:           reqData.Kind,
		SeatCapacity:   reqData.SeatCapacity,
		ValidFrom:      time.Now(),
		ValidUntil:     reqData.ValidUntil,
		AmountPaid:     reqData.AmountPaid,
		SubscriptionID: reqData.SubscriptionID,
		ActorID:        userID,
	}
	if reqData.SelfAssign {
		input.AutoAssignUserID = &userID
	}

	lic, err := ctl.Ledger.CreateLicense(input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "License created successfully!", lic)
}

// AssignUsers grants course access to organization members from a license.
func (ctl *Controller) AssignUsers(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	licenseID := c.Locals("licenseID").(int)

	reqData, ok := c.Locals("validatedAssign").(*struct {
		UserIDs []uint `json:"user_ids"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	grants, err := ctl.Ledger.AssignUsers(uint(licenseID), reqData.UserIDs, userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	// Notify each new grantee
	if len(grants) > 0 {
		var grantedCourse courseModels.Course
		database.Database.Db.Where("id = ?", grants[0].CourseID).First(&grantedCourse)
		for _, grant := range grants {
			var grantee models.User
			if err := database.Database.Db.Where("id = ?", grant.UserID).First(&grantee).Error; err == nil {
				utils.SendAccessGrantedEmail(grantee.Email, grantee.Name, grantedCourse.Title)
			}
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users assigned successfully!", fiber.Map{
		"granted": grants,
		"count":   len(grants),
	})
}

// RevokeAccess revokes one grant and releases its seat.
func (ctl *Controller) RevokeAccess(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	accessID := c.Locals("accessID").(int)

	reqData, _ := c.Locals("validatedRevoke").(*struct {
		Reason string `json:"reason"`
	})
	reason := ""
	if reqData != nil {
		reason = reqData.Reason
	}

	access, err := ctl.Ledger.RevokeAccess(uint(accessID), userID, reason)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	var revokedUser models.User
	var revokedCourse courseModels.Course
	if database.Database.Db.Where("id = ?", access.UserID).First(&revokedUser).Error == nil &&
		database.Database.Db.Where("id = ?", access.CourseID).First(&revokedCourse).Error == nil {
		utils.SendAccessRevokedEmail(revokedUser.Email, revokedUser.Name, revokedCourse.Title, reason)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access revoked successfully!", access)
}

// CancelLicense cancels a license and revokes every grant drawn from it.
func (ctl *Controller) CancelLicense(c *fiber.Ctx) error {
	if _, ok := c.Locals("userId").(uint); !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	licenseID := c.Locals("licenseID").(int)

	reqData, _ := c.Locals("validatedCancel").(*struct {
		Reason string `json:"reason"`
	})
	reason := ""
	if reqData != nil {
		reason = reqData.Reason
	}

	lic, err := ctl.Ledger.CancelLicense(uint(licenseID), reason)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "License cancelled successfully!", lic)
}

// GetOrgLicenses lists the caller's organization licenses with their seat
// usage.
func (ctl *Controller) GetOrgLicenses(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	type LicenseWithCourse struct {
		licenseModels.License
		CourseTitle string `json:"course_title"`
	}

	var licenses []licenseModels.License
	if err := database.Database.Db.Where("organization_id = ? AND is_deleted = ?", user.OrganizationID, false).
		Order("created_at desc").Find(&licenses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch licenses!", nil)
	}

	result := make([]LicenseWithCourse, len(licenses))
	for i, lic := range licenses {
		var licensedCourse courseModels.Course
		database.Database.Db.Where("id = ?", lic.CourseID).First(&licensedCourse)
		result[i] = LicenseWithCourse{License: lic, CourseTitle: licensedCourse.Title}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Licenses fetched successfully!", fiber.Map{
		"licenses": result,
		"total":    len(result),
	})
}

// GetLicenseAccesses lists the grants drawn from one license.
func (ctl *Controller) GetLicenseAccesses(c *fiber.Ctx) error {
	if _, ok := c.Locals("userId").(uint); !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	licenseID := c.Locals("licenseID").(int)

	var accesses []licenseModels.UserAccess
	if err := database.Database.Db.Where("license_id = ? AND is_deleted = ?", licenseID, false).
		Order("created_at desc").Find(&accesses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch access grants!", nil)
	}

	type AccessWithUser struct {
		licenseModels.UserAccess
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}

	result := make([]AccessWithUser, len(accesses))
	for i, access := range accesses {
		var grantee models.User
		database.Database.Db.Where("id = ?", access.UserID).First(&grantee)
		result[i] = AccessWithUser{UserAccess: access, UserName: grantee.Name, UserEmail: grantee.Email}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access grants fetched successfully!", fiber.Map{
		"accesses": result,
		"total":    len(result),
	})
}

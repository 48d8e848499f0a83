package licenseValidator

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"lms/middleware"
	licenseModels "lms/models/license"
)

// PurchaseLicense validates a license purchase request
func PurchaseLicense() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID       uint       `json:"course_id"`
			Kind           string     `json:"kind"`
			SeatCapacity   *int       `json:"seat_capacity"`
			ValidUntil     *time.Time `json:"valid_until"`
			AmountPaid     float64    `json:"amount_paid"`
			SubscriptionID string     `json:"subscription_id"`
			SelfAssign     bool       `json:"self_assign"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		// Validate Course
		if reqData.CourseID == 0 {
			errors["course_id"] = "Course ID is required!"
		}

		// Validate Kind
		switch reqData.Kind {
		case licenseModels.KindSeat:
			if reqData.SeatCapacity == nil || *reqData.SeatCapacity < 1 {
				errors["seat_capacity"] = "Seat capacity must be at least 1 for seat licenses!"
			}
		case licenseModels.KindTimeLimited:
			if reqData.ValidUntil == nil {
				errors["valid_until"] = "Expiry date is required for time-limited licenses!"
			} else if reqData.ValidUntil.Before(time.Now()) {
				errors["valid_until"] = "Expiry date must be in the future!"
			}
		case licenseModels.KindUnlimited:
			// no extra fields
		default:
			errors["kind"] = "Kind must be one of SEAT, UNLIMITED or TIME_LIMITED!"
		}

		// Validate Amount
		if reqData.AmountPaid < 0 {
			errors["amount_paid"] = "Amount paid cannot be negative!"
		}

		// Respond with errors if any exist
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPurchase", reqData)
		return c.Next()
	}
}

// AssignUsers validates a seat assignment request
func AssignUsers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			UserIDs []uint `json:"user_ids"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.UserIDs) == 0 {
			errors["user_ids"] = "At least one user ID is required!"
		}
		for _, id := range reqData.UserIDs {
			if id == 0 {
				errors["user_ids"] = "User IDs must be positive!"
				break
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAssign", reqData)
		return c.Next()
	}
}

// LicenseID parses the license ID from the URL
func LicenseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("licenseId"))
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid license ID in the URL!", nil)
		}

		c.Locals("licenseID", id)
		return c.Next()
	}
}

// AccessID parses the access grant ID from the URL
func AccessID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("accessId"))
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid access ID in the URL!", nil)
		}

		c.Locals("accessID", id)
		return c.Next()
	}
}

// RevokeAccess validates a revocation request
func RevokeAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Reason string `json:"reason"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		c.Locals("validatedRevoke", reqData)
		return c.Next()
	}
}

// CancelLicense validates a cancellation request
func CancelLicense() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Reason string `json:"reason"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		c.Locals("validatedCancel", reqData)
		return c.Next()
	}
}

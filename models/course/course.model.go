package course

import "gorm.io/gorm"

// CourseStatus enum values
const (
	CourseDraft    = "DRAFT"
	CourseActive   = "ACTIVE"
	CourseInactive = "INACTIVE"
)

// Course represents a learning course offered by an organization. The same
// record serves as the catalog entry licensed to other organizations.
type Course struct {
	gorm.Model
	OrganizationID  uint    `gorm:"not null;index" json:"organization_id"`
	Title           string  `json:"title"`
	Description     string  `gorm:"type:text" json:"description"`
	Author          string  `json:"author"`
	Status          string  `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	Price           float64 `json:"price" gorm:"default:0"`
	IsFree          bool    `json:"is_free" gorm:"default:false"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	EnrollmentCount int     `json:"enrollment_count" gorm:"default:0"`
	IsPublished     bool    `json:"is_published" gorm:"default:false"`
	IsDeleted       bool    `gorm:"default:false"`
}

package models

import "gorm.io/gorm"

// Organization is a tenant on the platform. Courses and licenses belong to
// an organization; users are members of one.
type Organization struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	ContactEmail string `json:"contact_email"`
	IsDeleted    bool   `gorm:"default:false"`
}

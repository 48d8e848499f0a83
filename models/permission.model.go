package models

import (
	"gorm.io/gorm"
)

// Permission values checked by middleware.CheckPermissionMiddleware
const (
	PermManageLicenses = "manage-licenses"
	PermManageCourses  = "manage-courses"
)

type Permission struct {
	gorm.Model
	UserID     uint   `gorm:"not null;index"`
	User       User   `gorm:"foreignKey:UserID"`
	Permission string `gorm:"type:varchar(255)"` // e.g. "manage-licenses"
	IsDeleted  bool   `gorm:"default:false"`
}

package course

import "gorm.io/gorm"

// Lesson is an ordered content unit within a course. Lessons unlock
// sequentially: a lesson is available once the previous one is completed.
type Lesson struct {
	gorm.Model
	CourseID        uint   `gorm:"not null;index" json:"course_id"`
	Title           string `json:"title"`
	Content         string `gorm:"type:text" json:"content"`
	VideoURL        string `json:"video_url"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"` // order within course
	DurationMinutes int    `json:"duration_minutes" gorm:"default:0"`
	IsPublished     bool   `json:"is_published" gorm:"default:false"`
	IsDeleted       bool   `gorm:"default:false"`
}

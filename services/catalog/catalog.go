// Package catalog reads course metadata for the progress tracker: content
// counts and the published flag. Counts are always fetched fresh so
// percentages do not drift when content is added or removed after
// enrollment.
package catalog

import (
	"gorm.io/gorm"

	courseModels "lms/models/course"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CourseCounts returns the authoritative published lesson and quiz counts.
func (s *Store) CourseCounts(courseID uint) (lessons, quizzes int64, err error) {
	if err = s.db.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&lessons).Error; err != nil {
		return 0, 0, err
	}
	if err = s.db.Model(&courseModels.Quiz{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&quizzes).Error; err != nil {
		return 0, 0, err
	}
	return lessons, quizzes, nil
}

// IsCoursePublished reports whether the course exists and is published.
func (s *Store) IsCoursePublished(courseID uint) (bool, error) {
	var count int64
	err := s.db.Model(&courseModels.Course{}).
		Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&count).Error
	return count > 0, err
}

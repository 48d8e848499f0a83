package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizQuestion is a graded question embedded in a quiz. A question with a
// single correct answer is compared case-insensitively after trimming;
// multiple correct answers must be matched exactly as a set.
type QuizQuestion struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Points         int      `json:"points"`
	Options        []string `json:"options,omitempty"`
	CorrectAnswers []string `json:"correct_answers"`
}

// Quiz is an ordered set of graded questions belonging to a course.
// RequiredLessonIDs gate access: the quiz stays locked until every listed
// lesson is completed. MaxAttempts unset means unlimited retakes.
type Quiz struct {
	gorm.Model
	CourseID          uint                               `gorm:"not null;index" json:"course_id"`
	Title             string                             `json:"title"`
	Description       string                             `gorm:"type:text" json:"description"`
	PassingScore      int                                `json:"passing_score" gorm:"default:60"` // percent, 0-100
	MaxAttempts       *int                               `json:"max_attempts"`
	RequiredLessonIDs datatypes.JSONSlice[uint]          `json:"required_lesson_ids"`
	Questions         datatypes.JSONSlice[QuizQuestion]  `json:"questions"`
	OrderIndex        int                                `json:"order_index" gorm:"default:0"`
	IsPublished       bool                               `json:"is_published" gorm:"default:false"`
	IsDeleted         bool                               `gorm:"default:false"`
}

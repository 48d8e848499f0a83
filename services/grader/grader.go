// Package grader scores quiz submissions against a quiz definition. Pure:
// grading never touches storage.
package grader

import (
	"math"
	"strings"

	courseModels "lms/models/course"
)

// SubmittedAnswer is one learner answer keyed by question id. Answers is the
// selected value(s); multi-answer questions submit the full set.
type SubmittedAnswer struct {
	QuestionID string   `json:"question_id"`
	Answers    []string `json:"answers"`
}

// Result is the outcome of grading one submission.
type Result struct {
	Score          int  `json:"score"` // percent, 0-100, rounded
	Passed         bool `json:"passed"`
	TotalPoints    int  `json:"total_points"`
	EarnedPoints   int  `json:"earned_points"`
	CorrectCount   int  `json:"correct_count"`
	TotalQuestions int  `json:"total_questions"`
}

// Grade scores answers against quiz. Unanswered questions count as
// incorrect and earn no points. A quiz worth zero total points scores 0.
// Passed is true when the rounded score meets the passing threshold.
func Grade(quiz *courseModels.Quiz, answers []SubmittedAnswer) Result {
	byQuestion := make(map[string][]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Answers
	}

	result := Result{TotalQuestions: len(quiz.Questions)}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		result.TotalPoints += q.Points
		submitted, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		if answerMatches(q.CorrectAnswers, submitted) {
			result.CorrectCount++
			result.EarnedPoints += q.Points
		}
	}

	if result.TotalPoints > 0 {
		result.Score = int(math.Round(float64(result.EarnedPoints) / float64(result.TotalPoints) * 100))
	}
	result.Passed = result.Score >= quiz.PassingScore
	return result
}

// answerMatches compares a submission against the correct answer(s).
// A single correct answer compares case-insensitively after trimming;
// multiple correct answers require exact set equality, order-independent.
func answerMatches(correct, submitted []string) bool {
	if len(correct) == 1 {
		return len(submitted) == 1 && normalize(submitted[0]) == normalize(correct[0])
	}
	if len(submitted) != len(correct) {
		return false
	}
	want := make(map[string]int, len(correct))
	for _, c := range correct {
		want[normalize(c)]++
	}
	for _, s := range submitted {
		key := normalize(s)
		if want[key] == 0 {
			return false
		}
		want[key]--
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

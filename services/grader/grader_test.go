package grader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	courseModels "lms/models/course"
)

func sampleQuiz() *courseModels.Quiz {
	return &courseModels.Quiz{
		PassingScore: 60,
		Questions: []courseModels.QuizQuestion{
			{ID: "q1", Points: 10, CorrectAnswers: []string{"Paris"}},
			{ID: "q2", Points: 10, CorrectAnswers: []string{"red", "blue"}},
			{ID: "q3", Points: 20, CorrectAnswers: []string{"42"}},
		},
	}
}

func TestGradeAllCorrect(t *testing.T) {
	result := Grade(sampleQuiz(), []SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"Paris"}},
		{QuestionID: "q2", Answers: []string{"blue", "red"}},
		{QuestionID: "q3", Answers: []string{"42"}},
	})

	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 40, result.EarnedPoints)
	assert.Equal(t, 40, result.TotalPoints)
}

func TestGradeSingleAnswerCaseInsensitive(t *testing.T) {
	result := Grade(sampleQuiz(), []SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"  PARIS "}},
	})

	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 10, result.EarnedPoints)
}

func TestGradeMultiAnswerRequiresExactSet(t *testing.T) {
	// Subset of the correct answers is wrong.
	result := Grade(sampleQuiz(), []SubmittedAnswer{
		{QuestionID: "q2", Answers: []string{"red"}},
	})
	assert.Equal(t, 0, result.CorrectCount)

	// Superset is also wrong.
	result = Grade(sampleQuiz(), []SubmittedAnswer{
		{QuestionID: "q2", Answers: []string{"red", "blue", "green"}},
	})
	assert.Equal(t, 0, result.CorrectCount)

	// Order does not matter.
	result = Grade(sampleQuiz(), []SubmittedAnswer{
		{QuestionID: "q2", Answers: []string{"BLUE", "Red"}},
	})
	assert.Equal(t, 1, result.CorrectCount)
}

func TestGradeUnansweredQuestionsEarnNothing(t *testing.T) {
	result := Grade(sampleQuiz(), []SubmittedAnswer{
		{QuestionID: "q3", Answers: []string{"42"}},
	})

	assert.Equal(t, 50, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 3, result.TotalQuestions)
}

func TestGradeRoundsScore(t *testing.T) {
	quiz := &courseModels.Quiz{
		PassingScore: 60,
		Questions: []courseModels.QuizQuestion{
			{ID: "q1", Points: 1, CorrectAnswers: []string{"a"}},
			{ID: "q2", Points: 1, CorrectAnswers: []string{"b"}},
			{ID: "q3", Points: 1, CorrectAnswers: []string{"c"}},
		},
	}

	result := Grade(quiz, []SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"a"}},
		{QuestionID: "q2", Answers: []string{"b"}},
	})

	// 2/3 rounds to 67.
	assert.Equal(t, 67, result.Score)
	assert.True(t, result.Passed)
}

func TestGradeZeroPointQuizScoresZero(t *testing.T) {
	quiz := &courseModels.Quiz{
		PassingScore: 0,
		Questions: []courseModels.QuizQuestion{
			{ID: "q1", Points: 0, CorrectAnswers: []string{"a"}},
		},
	}

	result := Grade(quiz, []SubmittedAnswer{
		{QuestionID: "q1", Answers: []string{"a"}},
	})

	assert.Equal(t, 0, result.Score)
	// Passing score 0 still passes a 0 score.
	assert.True(t, result.Passed)
	assert.Equal(t, 1, result.CorrectCount)
}

func TestGradeUnknownQuestionIDIgnored(t *testing.T) {
	result := Grade(sampleQuiz(), []SubmittedAnswer{
		{QuestionID: "nope", Answers: []string{"Paris"}},
	})

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.CorrectCount)
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

func quizFixture() (*QuizService, *memory.Quizzes) {
	questions := memory.NewQuestions(
		domain.DailyQuestion{ID: "q1", Subject: "OS", Question: "Which schedules threads?", Options: [4]string{"Kernel", "Compiler", "Linker", "Shell"}, Answer: "option1", Date: "2026-10-14"},
		domain.DailyQuestion{ID: "q2", Subject: "OS", Question: "What is a page?", Options: [4]string{"File", "Block of memory", "Process", "Socket"}, Answer: "option2", Date: "2026-10-14"},
		domain.DailyQuestion{ID: "q3", Subject: "OS", Question: "Legacy row", Options: [4]string{"a", "b", "c", "d"}, Answer: "c", Date: "2026-10-14"},
	)
	quizzes := memory.NewQuizzes()
	svc := NewQuizService(questions, quizzes, memory.NewUsers(ana))
	svc.now = fixedDay
	return svc, quizzes
}

func TestQuiz_Submit_Grades(t *testing.T) {
	t.Parallel()

	svc, quizzes := quizFixture()
	ctx := context.Background()
	res, err := svc.Submit(ctx, ana, SubmitQuizInput{
		Subject: " OS ",
		Answers: []domain.QuizAnswer{
			{QuestionID: "q1", SelectedOption: 0},
			{QuestionID: "q2", SelectedOption: 3},
			{QuestionID: "q3", SelectedOption: 2},
			{QuestionID: "gone", SelectedOption: 1},
		},
		TimeTakenSeconds: 42,
	})
	require.NoError(t, err)

	att := res.Attempt
	assert.NotEmpty(t, att.ID)
	assert.Equal(t, "OS", att.Subject)
	assert.Equal(t, 2, att.CorrectAnswers)
	assert.Equal(t, 4, att.TotalQuestions)
	assert.Equal(t, 50, att.Score)
	assert.Equal(t, "D", att.Grade)
	assert.Equal(t, 42, att.TimeTakenSeconds)
	require.Len(t, att.Results, 4)
	assert.True(t, att.Results[0].IsCorrect)
	assert.Equal(t, "Kernel", att.Results[0].CorrectText)
	assert.False(t, att.Results[1].IsCorrect)
	assert.Equal(t, "Socket", att.Results[1].SelectedText)
	assert.Equal(t, "Block of memory", att.Results[1].CorrectText)
	assert.True(t, att.Results[2].IsCorrect, "answer stored as option text still grades")
	assert.False(t, att.Results[3].IsCorrect)
	assert.Equal(t, -1, att.Results[3].CorrectOption)

	assert.Equal(t, 1, res.Streak.Current)

	hist, err := svc.History(ctx, ana, "OS", 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, att.ID, hist[0].ID)

	st, err := svc.Stats(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalQuizzes)
	assert.Equal(t, 50, st.BestScore)

	other, err := quizzes.ListByUser(ctx, "u-eve", "", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestQuiz_Submit_RoundsScore(t *testing.T) {
	t.Parallel()

	svc, _ := quizFixture()
	res, err := svc.Submit(context.Background(), ana, SubmitQuizInput{
		Subject: "OS",
		Answers: []domain.QuizAnswer{
			{QuestionID: "q1", SelectedOption: 0},
			{QuestionID: "q2", SelectedOption: 1},
			{QuestionID: "q3", SelectedOption: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 67, res.Attempt.Score)
	assert.Equal(t, "C", res.Attempt.Grade)
	assert.Equal(t, "Average", res.Attempt.Performance)
}

func TestQuiz_Submit_Invalid(t *testing.T) {
	t.Parallel()

	tooMany := make([]domain.QuizAnswer, MaxQuizAnswers+1)
	for i := range tooMany {
		tooMany[i] = domain.QuizAnswer{QuestionID: string(rune('a' + i%26)) + string(rune('a'+i/26))}
	}
	tests := []struct {
		name string
		in   SubmitQuizInput
	}{
		{name: "no subject", in: SubmitQuizInput{Answers: []domain.QuizAnswer{{QuestionID: "q1"}}}},
		{name: "no answers", in: SubmitQuizInput{Subject: "OS"}},
		{name: "too many", in: SubmitQuizInput{Subject: "OS", Answers: tooMany}},
		{name: "option out of range", in: SubmitQuizInput{Subject: "OS", Answers: []domain.QuizAnswer{{QuestionID: "q1", SelectedOption: 4}}}},
		{name: "negative option", in: SubmitQuizInput{Subject: "OS", Answers: []domain.QuizAnswer{{QuestionID: "q1", SelectedOption: -1}}}},
		{name: "blank id", in: SubmitQuizInput{Subject: "OS", Answers: []domain.QuizAnswer{{QuestionID: " "}}}},
		{name: "duplicate", in: SubmitQuizInput{Subject: "OS", Answers: []domain.QuizAnswer{{QuestionID: "q1"}, {QuestionID: "q1", SelectedOption: 1}}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, quizzes := quizFixture()
			_, err := svc.Submit(context.Background(), ana, tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			list, _ := quizzes.ListByUser(context.Background(), ana.ID, "", 0)
			assert.Empty(t, list)
		})
	}
}

type failingStreakUsers struct{ *memory.Users }

func (failingStreakUsers) RecordActivity(domain.Context, string, time.Time) (domain.Streak, error) {
	return domain.Streak{}, errors.New("down")
}

func TestQuiz_Submit_StreakFailureKeepsAttempt(t *testing.T) {
	t.Parallel()

	svc, quizzes := quizFixture()
	svc.Users = failingStreakUsers{memory.NewUsers(ana)}
	res, err := svc.Submit(context.Background(), ana, SubmitQuizInput{Subject: "OS", Answers: []domain.QuizAnswer{{QuestionID: "q1"}}})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Attempt.Score)
	assert.Zero(t, res.Streak.Current)
	list, err := quizzes.ListByUser(context.Background(), ana.ID, "", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestQuiz_Streak(t *testing.T) {
	t.Parallel()

	svc, _ := quizFixture()
	ctx := context.Background()
	st, err := svc.Streak(ctx, ana)
	require.NoError(t, err)
	assert.Zero(t, st.Current)

	day := fixedDay()
	svc.now = func() time.Time { return day }
	_, err = svc.RecordActivity(ctx, ana)
	require.NoError(t, err)
	day = day.AddDate(0, 0, 1)
	st, err = svc.RecordActivity(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Current)
	assert.Equal(t, 2, st.Max)

	_, err = svc.Streak(ctx, domain.User{ID: "u-ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

var quizCols = []string{"id", "user_id", "subject", "score", "correct_answers", "total_questions", "grade", "performance", "time_taken_seconds", "results", "created_at"}

func TestQuizRepo_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		execErr error
		wantErr bool
	}{
		{name: "ok"},
		{name: "database error", execErr: errors.New("boom"), wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := newMock(t)
			exp := mock.ExpectExec("INSERT INTO quiz_attempts").
				WithArgs(pgxmock.AnyArg(), "u-1", "OS", 50, 1, 2, "D", "Below Average", 30, domain.SchemaVersion, pgxmock.AnyArg(), pgxmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			id, err := postgres.NewQuizRepo(mock).Create(context.Background(), domain.QuizAttempt{
				UserID: "u-1", Subject: "OS", Score: 50, CorrectAnswers: 1, TotalQuestions: 2,
				Grade: "D", Performance: "Below Average", TimeTakenSeconds: 30,
				Results: []domain.QuizResultItem{{QuestionID: "q1", IsCorrect: true}},
			})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, id)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQuizRepo_ListByUser(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	mock := newMock(t)
	mock.ExpectQuery("FROM quiz_attempts").WithArgs("u-1", "OS", 20).
		WillReturnRows(pgxmock.NewRows(quizCols).
			AddRow("a-1", "u-1", "OS", 100, 2, 2, "A+", "Excellent", 12, []byte(`[{"question_id":"q1","is_correct":true}]`), now))

	list, err := postgres.NewQuizRepo(mock).ListByUser(context.Background(), "u-1", "OS", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A+", list[0].Grade)
	require.Len(t, list[0].Results, 1)
	assert.True(t, list[0].Results[0].IsCorrect)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepo_Stats(t *testing.T) {
	t.Parallel()

	t.Run("aggregates per subject", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\), COALESCE").WithArgs("u-1").
			WillReturnRows(pgxmock.NewRows([]string{"count", "avg", "max", "correct", "total"}).AddRow(3, 80.0, 100, 9, 12))
		mock.ExpectQuery("GROUP BY subject").WithArgs("u-1").
			WillReturnRows(pgxmock.NewRows([]string{"subject", "count", "avg", "max"}).
				AddRow("DBMS", 1, 100.0, 100).
				AddRow("OS", 2, 70.0, 80))

		st, err := postgres.NewQuizRepo(mock).Stats(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, 3, st.TotalQuizzes)
		assert.InDelta(t, 80, st.AverageScore, 0.001)
		assert.Equal(t, []domain.SubjectQuizStats{
			{Subject: "DBMS", Quizzes: 1, AverageScore: 100, BestScore: 100},
			{Subject: "OS", Quizzes: 2, AverageScore: 70, BestScore: 80},
		}, st.Subjects)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no attempts skips the breakdown", func(t *testing.T) {
		t.Parallel()
		mock := newMock(t)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\), COALESCE").WithArgs("u-2").
			WillReturnRows(pgxmock.NewRows([]string{"count", "avg", "max", "correct", "total"}).AddRow(0, 0.0, 0, 0, 0))

		st, err := postgres.NewQuizRepo(mock).Stats(context.Background(), "u-2")
		require.NoError(t, err)
		assert.Zero(t, st.TotalQuizzes)
		assert.Empty(t, st.Subjects)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

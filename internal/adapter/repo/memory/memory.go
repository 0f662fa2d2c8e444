// Package memory provides in-process repositories with the same semantics as
// the Postgres adapters. They back handler and use case tests and local runs
// without a database.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

var (
	_ domain.UserRepository      = (*Users)(nil)
	_ domain.InterviewRepository = (*Interviews)(nil)
	_ domain.ChatRepository      = (*Chats)(nil)
	_ domain.QuestionRepository  = (*Questions)(nil)
	_ domain.ResumeRepository    = (*Resumes)(nil)
	_ domain.QuizRepository      = (*Quizzes)(nil)
)

const (
	defaultSessionLimit  = 20
	defaultQuestionLimit = 50
	defaultQuizLimit     = 20
)

// Users is a user mirror keyed by id.
type Users struct {
	mu      sync.Mutex
	rows    map[string]domain.User
	streaks map[string]domain.Streak
}

// NewUsers seeds a user mirror.
func NewUsers(users ...domain.User) *Users {
	m := &Users{rows: make(map[string]domain.User, len(users)), streaks: map[string]domain.Streak{}}
	for _, u := range users {
		m.rows[u.ID] = u
	}
	return m
}

// Get loads a user by id.
func (m *Users) Get(_ domain.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// UpdateResume stores resume text on an existing user.
func (m *Users) UpdateResume(_ domain.Context, id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.ResumeText = text
	m.rows[id] = u
	return nil
}

func (m *Users) GetStreak(_ domain.Context, id string) (domain.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.Streak{}, domain.ErrNotFound
	}
	return m.streaks[id], nil
}

func (m *Users) RecordActivity(_ domain.Context, id string, at time.Time) (domain.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.Streak{}, domain.ErrNotFound
	}
	st := m.streaks[id].Record(at)
	m.streaks[id] = st
	return st, nil
}

// Interviews stores interview sessions.
type Interviews struct {
	mu   sync.Mutex
	rows map[string]domain.InterviewSession
}

// NewInterviews returns an empty store.
func NewInterviews() *Interviews {
	return &Interviews{rows: map[string]domain.InterviewSession{}}
}

// Len reports how many sessions are stored.
func (m *Interviews) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *Interviews) Create(_ domain.Context, s domain.InterviewSession) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = domain.SessionActive
	}
	m.rows[s.ID] = cloneInterview(s)
	return s.ID, nil
}

func (m *Interviews) Get(_ domain.Context, id string) (domain.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return domain.InterviewSession{}, domain.ErrNotFound
	}
	return cloneInterview(s), nil
}

// Update applies fn to a copy and stores it only when fn succeeds.
func (m *Interviews) Update(_ domain.Context, id string, fn func(*domain.InterviewSession) error) (domain.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return domain.InterviewSession{}, domain.ErrNotFound
	}
	s = cloneInterview(s)
	if err := fn(&s); err != nil {
		return domain.InterviewSession{}, err
	}
	s.UpdatedAt = time.Now().UTC()
	m.rows[id] = cloneInterview(s)
	return s, nil
}

// ListByUser returns sessions newest first.
func (m *Interviews) ListByUser(_ domain.Context, userID string, limit, offset int) ([]domain.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InterviewSession
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, cloneInterview(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset, defaultSessionLimit), nil
}

func (m *Interviews) Delete(_ domain.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *Interviews) Stats(_ domain.Context, userID string) (domain.InterviewStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st domain.InterviewStats
	var sum float64
	scored := 0
	for _, s := range m.rows {
		if s.UserID != userID {
			continue
		}
		st.Total++
		if s.Status == domain.SessionEnded {
			st.Completed++
		} else {
			st.Active++
		}
		if s.Feedback != nil {
			scored++
			sum += s.Feedback.OverallScore
			if s.Feedback.OverallScore > st.BestScore {
				st.BestScore = s.Feedback.OverallScore
			}
		}
	}
	if scored > 0 {
		st.AverageScore = sum / float64(scored)
	}
	return st, nil
}

func cloneInterview(s domain.InterviewSession) domain.InterviewSession {
	s.Turns = append([]domain.InterviewTurn(nil), s.Turns...)
	if s.Feedback != nil {
		fb := *s.Feedback
		s.Feedback = &fb
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		s.EndedAt = &t
	}
	return s
}

// Chats stores study-assistant conversations.
type Chats struct {
	mu   sync.Mutex
	rows map[string]domain.ChatSession
}

// NewChats returns an empty store.
func NewChats() *Chats { return &Chats{rows: map[string]domain.ChatSession{}} }

func (m *Chats) Create(_ domain.Context, s domain.ChatSession) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	s.Turns = append([]domain.ChatTurn(nil), s.Turns...)
	m.rows[s.ID] = s
	return s.ID, nil
}

func (m *Chats) Get(_ domain.Context, id string) (domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return domain.ChatSession{}, domain.ErrNotFound
	}
	s.Turns = append([]domain.ChatTurn(nil), s.Turns...)
	return s, nil
}

func (m *Chats) Update(_ domain.Context, id string, fn func(*domain.ChatSession) error) (domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return domain.ChatSession{}, domain.ErrNotFound
	}
	s.Turns = append([]domain.ChatTurn(nil), s.Turns...)
	if err := fn(&s); err != nil {
		return domain.ChatSession{}, err
	}
	s.UpdatedAt = time.Now().UTC()
	m.rows[id] = s
	return s, nil
}

// ListByUser returns conversations most recently active first.
func (m *Chats) ListByUser(_ domain.Context, userID string, limit int) ([]domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChatSession
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return page(out, limit, 0, defaultSessionLimit), nil
}

func (m *Chats) Delete(_ domain.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// Questions stores daily quiz questions, unique per subject and text.
type Questions struct {
	mu   sync.Mutex
	rows []domain.DailyQuestion
}

// NewQuestions seeds a question store.
func NewQuestions(seed ...domain.DailyQuestion) *Questions {
	return &Questions{rows: append([]domain.DailyQuestion(nil), seed...)}
}

func (m *Questions) InsertMany(_ domain.Context, qs []domain.DailyQuestion) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range qs {
		if m.exists(q.Subject, q.Question) {
			continue
		}
		if q.ID == "" {
			q.ID = uuid.New().String()
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = time.Now().UTC()
		}
		m.rows = append(m.rows, q)
		n++
	}
	return n, nil
}

func (m *Questions) exists(subject, question string) bool {
	for _, r := range m.rows {
		if r.Subject == subject && r.Question == question {
			return true
		}
	}
	return false
}

func (m *Questions) ListByDate(_ domain.Context, date, subject string) ([]domain.DailyQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DailyQuestion
	for _, r := range m.rows {
		if r.Date == date && (subject == "" || r.Subject == subject) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListBySubject returns the newest questions for subject.
func (m *Questions) ListBySubject(_ domain.Context, subject string, limit int) ([]domain.DailyQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DailyQuestion
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].Subject == subject {
			out = append(out, m.rows[i])
		}
	}
	return page(out, limit, 0, defaultQuestionLimit), nil
}

// RecentTexts returns the newest question texts for subject.
func (m *Questions) RecentTexts(ctx domain.Context, subject string, limit int) ([]string, error) {
	qs, _ := m.ListBySubject(ctx, subject, limit)
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Question)
	}
	return out, nil
}

// GetMany returns the stored questions whose id is in ids.
func (m *Questions) GetMany(_ domain.Context, ids []string) ([]domain.DailyQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []domain.DailyQuestion
	for _, r := range m.rows {
		if _, ok := want[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Resumes stores resume reviews.
type Resumes struct {
	mu   sync.Mutex
	rows []domain.ResumeReview
}

// NewResumes returns an empty store.
func NewResumes() *Resumes { return &Resumes{} }

// Len reports how many reviews are stored.
func (m *Resumes) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *Resumes) Create(_ domain.Context, r domain.ResumeReview) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	m.rows = append(m.rows, r)
	return r.ID, nil
}

func (m *Resumes) LatestByUser(_ domain.Context, userID string) (domain.ResumeReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			return m.rows[i], nil
		}
	}
	return domain.ResumeReview{}, domain.ErrNotFound
}

// Quizzes stores scored quiz attempts.
type Quizzes struct {
	mu   sync.Mutex
	rows []domain.QuizAttempt
}

// NewQuizzes returns an empty store.
func NewQuizzes() *Quizzes { return &Quizzes{} }

func (m *Quizzes) Create(_ domain.Context, a domain.QuizAttempt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Results = append([]domain.QuizResultItem(nil), a.Results...)
	m.rows = append(m.rows, a)
	return a.ID, nil
}

// ListByUser returns attempts newest first.
func (m *Quizzes) ListByUser(_ domain.Context, userID, subject string, limit int) ([]domain.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.QuizAttempt
	for i := len(m.rows) - 1; i >= 0; i-- {
		a := m.rows[i]
		if a.UserID == userID && (subject == "" || a.Subject == subject) {
			a.Results = append([]domain.QuizResultItem(nil), a.Results...)
			out = append(out, a)
		}
	}
	return page(out, limit, 0, defaultQuizLimit), nil
}

func (m *Quizzes) Stats(_ domain.Context, userID string) (domain.QuizStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := domain.QuizStats{Subjects: []domain.SubjectQuizStats{}}
	bySubject := map[string]int{}
	sum := 0
	for _, a := range m.rows {
		if a.UserID != userID {
			continue
		}
		st.TotalQuizzes++
		sum += a.Score
		st.TotalCorrect += a.CorrectAnswers
		st.TotalQuestions += a.TotalQuestions
		if a.Score > st.BestScore {
			st.BestScore = a.Score
		}
		i, ok := bySubject[a.Subject]
		if !ok {
			i = len(st.Subjects)
			bySubject[a.Subject] = i
			st.Subjects = append(st.Subjects, domain.SubjectQuizStats{Subject: a.Subject})
		}
		ss := &st.Subjects[i]
		ss.AverageScore = (ss.AverageScore*float64(ss.Quizzes) + float64(a.Score)) / float64(ss.Quizzes+1)
		ss.Quizzes++
		if a.Score > ss.BestScore {
			ss.BestScore = a.Score
		}
	}
	if st.TotalQuizzes > 0 {
		st.AverageScore = float64(sum) / float64(st.TotalQuizzes)
	}
	sort.Slice(st.Subjects, func(i, j int) bool { return st.Subjects[i].Subject < st.Subjects[j].Subject })
	return st, nil
}

// page applies the Postgres list defaults: limit <= 0 means def and a
// negative offset means 0.
func page[T any](in []T, limit, offset, def int) []T {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(in) {
		offset = len(in)
	}
	in = in[offset:]
	if len(in) > limit {
		in = in[:limit]
	}
	return in
}

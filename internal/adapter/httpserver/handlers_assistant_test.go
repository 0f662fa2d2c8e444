package httpserver_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantChat(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec := h.doJSON(t, http.MethodPost, "/v1/assistant/chat", ana.ID, `{"query":"What is normalization?","subject":"DBMS"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decodeMap(t, rec)
	id, _ := first["session_id"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, first["reply"])

	rec = h.doJSON(t, http.MethodPost, "/v1/assistant/chat", ana.ID, `{"query":"And 3NF?","session_id":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, decodeMap(t, rec)["session_id"])

	rec = h.do(t, http.MethodGet, "/v1/assistant/session/"+id, ana.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["turns"], 2)

	rec = h.do(t, http.MethodGet, "/v1/assistant/history", ana.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["sessions"], 1)

	rec = h.do(t, http.MethodGet, "/v1/assistant/session/"+id, "u-bob", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodDelete, "/v1/assistant/session/"+id, ana.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(t, http.MethodGet, "/v1/assistant/session/"+id, ana.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssistantChat_Validation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "missing query", body: `{"subject":"OS"}`, status: http.StatusBadRequest},
		{name: "malformed session", body: `{"query":"q","subject":"OS","session_id":"abc"}`, status: http.StatusBadRequest},
		{name: "unknown session", body: `{"query":"q","subject":"OS","session_id":"6f1b7a52-8c67-4c4e-9a43-0c9b3c3f1a10"}`, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := h.doJSON(t, http.MethodPost, "/v1/assistant/chat", ana.ID, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestResumeReview(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/v1/assistant/resume", ana.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body, ct := multipartBody(t, "file", "cv.txt", []byte("Ana\nGo developer, 4 years"), nil)
	rec = h.do(t, http.MethodPost, "/v1/assistant/resume", ana.ID, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decodeMap(t, rec)
	assert.EqualValues(t, 78, review["ats_score"])
	assert.Equal(t, "cv.txt", review["filename"])

	rec = h.do(t, http.MethodGet, "/v1/assistant/resume", ana.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, review["id"], decodeMap(t, rec)["id"])

	stored, err := h.users.Get(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana\nGo developer, 4 years", stored.ResumeText)

	// Later interviews pick up the stored resume.
	start := startSession(t, h)
	rec = h.do(t, http.MethodGet, "/v1/interview/sessions/"+start.SessionID, ana.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeMap(t, rec)["has_resume"])
}

func TestResumeReview_Errors(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	body, ct := multipartBody(t, "", "", nil, map[string]string{"x": "y"})
	rec := h.do(t, http.MethodPost, "/v1/assistant/resume", ana.ID, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, "file", "cv.pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), nil)
	rec = h.do(t, http.MethodPost, "/v1/assistant/resume", ana.ID, body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, decodeEnvelope(t, rec).Error.Message, "extractor")

	rec = h.doJSON(t, http.MethodPost, "/v1/assistant/resume", ana.ID, `{"text":"resume"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyQuestions(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/v1/daily-questions", "", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	gen := decodeMap(t, rec)
	assert.EqualValues(t, 10, gen["inserted"])
	qs, ok := gen["questions"].([]any)
	require.True(t, ok)
	require.Len(t, qs, 10)
	first := qs[0].(map[string]any)
	assert.Equal(t, "Data Structures", first["subject"])
	assert.Equal(t, "A", first["option1"])

	rec = h.do(t, http.MethodGet, "/v1/daily-questions?subject=Data%20Structures", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["questions"], 10)

	rec = h.do(t, http.MethodGet, "/v1/daily-questions/subject/Data%20Structures?limit=3", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["questions"], 3)

	rec = h.doJSON(t, http.MethodPost, "/v1/daily-questions", "", `{"subjects":["OS"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 10, decodeMap(t, rec)["inserted"])
}

func TestDailyQuestions_Validation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "bad subject query", method: http.MethodGet, path: "/v1/daily-questions?subject=%3Cscript%3E"},
		{name: "bad subject path", method: http.MethodGet, path: "/v1/daily-questions/subject/%3Cb%3E"},
		{name: "bad limit", method: http.MethodGet, path: "/v1/daily-questions/subject/OS?limit=500"},
		{name: "blank subject", method: http.MethodPost, path: "/v1/daily-questions", body: `{"subjects":[""]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := h.doJSON(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

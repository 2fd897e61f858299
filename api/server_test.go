package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepilot/coursepilot/api"
	"github.com/coursepilot/coursepilot/internal/agent"
	"github.com/coursepilot/coursepilot/internal/course"
	"github.com/coursepilot/coursepilot/internal/llm"
	"github.com/coursepilot/coursepilot/internal/session"
	"github.com/coursepilot/coursepilot/internal/testutil"
	"github.com/coursepilot/coursepilot/internal/tools"
	"github.com/coursepilot/coursepilot/internal/vectorstore"
)

func newTestHandler(t *testing.T, gen *testutil.ScriptedGenerator) (http.Handler, *vectorstore.Store, *session.Store) {
	t.Helper()

	store, err := vectorstore.NewInMemory(testutil.FakeEmbedding(256), testutil.Logger(t))
	require.NoError(t, err)

	registry := tools.NewRegistry(testutil.Logger(t))
	sessions := session.NewStore(2)
	orc, err := agent.New(agent.Config{
		Generator:     gen,
		Registry:      registry,
		Sessions:      sessions,
		Logger:        testutil.Logger(t),
		MaxToolRounds: 2,
	})
	require.NoError(t, err)

	srv := api.NewServer(orc, store, sessions, testutil.Logger(t))
	return srv.Handler(), store, sessions
}

func seedCourse(t *testing.T, store *vectorstore.Store) {
	t.Helper()
	c := &course.Course{
		Title: "GoBasics",
		Link:  "https://example.com/go",
		Lessons: []course.Lesson{
			{Number: 1, Title: "Syntax"},
		},
	}
	chunks := []course.Chunk{
		{CourseTitle: c.Title, Lesson: 1, Index: 0, Content: "Go has a small syntax."},
	}
	_, err := store.AddCourse(t.Context(), c, chunks)
	require.NoError(t, err)
}

func postQuery(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestQuery_MintsSession(t *testing.T) {
	gen := testutil.NewScriptedGenerator().Text("Go is a language.")
	handler, _, _ := newTestHandler(t, gen)

	rec := postQuery(t, handler, `{"query":"What is Go?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Go is a language.", resp.Answer)
	assert.NotEmpty(t, resp.SessionID, "missing session id must be minted")
	assert.NotNil(t, resp.Sources)
}

func TestQuery_ReusesProvidedSession(t *testing.T) {
	gen := testutil.NewScriptedGenerator().Text("first").Text("second")
	handler, _, sessions := newTestHandler(t, gen)

	rec := postQuery(t, handler, `{"query":"one","session_id":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postQuery(t, handler, `{"query":"two","session_id":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.SessionID)
	assert.Len(t, sessions.History("abc"), 2)
}

func TestQuery_BadRequests(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	handler, _, _ := newTestHandler(t, gen)

	rec := postQuery(t, handler, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postQuery(t, handler, `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_EndpointErrorMapsToBadGateway(t *testing.T) {
	gen := testutil.NewScriptedGenerator().Fail(&llm.EndpointError{
		Kind: llm.KindRateLimited,
		Err:  errors.New("429"),
	})
	handler, _, _ := newTestHandler(t, gen)

	rec := postQuery(t, handler, `{"query":"anything"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limited", resp.Error)
	assert.NotEmpty(t, resp.Message)
}

func TestCourses_Stats(t *testing.T) {
	handler, store, _ := newTestHandler(t, testutil.NewScriptedGenerator())
	seedCourse(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCourses)
	assert.Equal(t, []string{"GoBasics"}, resp.CourseTitles)
}

func TestCourses_StatsEmptyIndex(t *testing.T) {
	handler, _, _ := newTestHandler(t, testutil.NewScriptedGenerator())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.TotalCourses)
	assert.NotNil(t, resp.CourseTitles)
}

func TestCourses_Outline(t *testing.T) {
	handler, store, _ := newTestHandler(t, testutil.NewScriptedGenerator())
	seedCourse(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/courses/GoBasics/outline", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var outline course.Outline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outline))
	assert.Equal(t, "GoBasics", outline.CourseTitle)
	require.Len(t, outline.Lessons, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/courses/Missing/outline", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCourses_Delete(t *testing.T) {
	handler, store, _ := newTestHandler(t, testutil.NewScriptedGenerator())
	seedCourse(t, store)

	req := httptest.NewRequest(http.MethodDelete, "/api/courses/GoBasics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, store.CourseCount())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.Clone(req.Context()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessions_Clear(t *testing.T) {
	handler, _, sessions := newTestHandler(t, testutil.NewScriptedGenerator())
	sessions.AddExchange("abc", "q", "a")

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, sessions.History("abc"))
}

func TestHealthEndpoints(t *testing.T) {
	handler, _, _ := newTestHandler(t, testutil.NewScriptedGenerator())

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

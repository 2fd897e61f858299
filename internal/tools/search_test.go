package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepilot/coursepilot/internal/course"
	"github.com/coursepilot/coursepilot/internal/testutil"
	"github.com/coursepilot/coursepilot/internal/tools"
	"github.com/coursepilot/coursepilot/internal/vectorstore"
)

// fakeStore stubs the vector store slices the tools consume.
type fakeStore struct {
	results    []vectorstore.SearchResult
	searchErr  error
	lastQuery  string
	lastTopK   int
	lastFilter vectorstore.Filter

	titles  map[string]string // input -> canonical title
	outline *course.Outline
}

func (f *fakeStore) Search(_ context.Context, query string, topK int, filter vectorstore.Filter) ([]vectorstore.SearchResult, error) {
	f.lastQuery = query
	f.lastTopK = topK
	f.lastFilter = filter
	return f.results, f.searchErr
}

func (f *fakeStore) ResolveCourseName(_ context.Context, name string) (string, error) {
	if title, ok := f.titles[name]; ok {
		return title, nil
	}
	return "", vectorstore.ErrCourseNotFound
}

func (f *fakeStore) Outline(_ context.Context, title string) (*course.Outline, error) {
	if f.outline != nil && f.outline.CourseTitle == title {
		return f.outline, nil
	}
	return nil, vectorstore.ErrCourseNotFound
}

func TestSearchTool_FormatsResultsAndSources(t *testing.T) {
	store := &fakeStore{
		results: []vectorstore.SearchResult{
			{Content: "Chunking splits documents.", CourseTitle: "RAG Basics", Lesson: 1, LessonLink: "https://example.com/1"},
			{Content: "Overlap preserves context.", CourseTitle: "RAG Basics", Lesson: 2},
		},
	}
	tool := tools.NewSearchTool(store, 5, testutil.Logger(t))

	inv, err := tool.Execute(context.Background(), map[string]any{"query": "chunking"})
	require.NoError(t, err)

	assert.Contains(t, inv.Output, "[RAG Basics - Lesson 1]\nChunking splits documents.")
	assert.Contains(t, inv.Output, "[RAG Basics - Lesson 2]\nOverlap preserves context.")

	require.Len(t, inv.Sources, 2)
	assert.Equal(t, "RAG Basics", inv.Sources[0].Course)
	require.NotNil(t, inv.Sources[0].Lesson)
	assert.Equal(t, 1, *inv.Sources[0].Lesson)
	assert.Equal(t, "https://example.com/1", inv.Sources[0].Link)

	assert.Equal(t, "chunking", store.lastQuery)
	assert.Equal(t, 5, store.lastTopK)
}

func TestSearchTool_ResolvesCourseName(t *testing.T) {
	store := &fakeStore{
		titles:  map[string]string{"rag": "RAG Basics"},
		results: []vectorstore.SearchResult{{Content: "x", CourseTitle: "RAG Basics", Lesson: 1}},
	}
	tool := tools.NewSearchTool(store, 3, testutil.Logger(t))

	_, err := tool.Execute(context.Background(), map[string]any{
		"query":       "chunking",
		"course_name": "rag",
	})
	require.NoError(t, err)
	assert.Equal(t, "RAG Basics", store.lastFilter.CourseTitle,
		"search must use the resolved canonical title")
}

func TestSearchTool_UnknownCourse(t *testing.T) {
	store := &fakeStore{titles: map[string]string{}}
	tool := tools.NewSearchTool(store, 3, testutil.Logger(t))

	inv, err := tool.Execute(context.Background(), map[string]any{
		"query":       "anything",
		"course_name": "Basket Weaving",
	})
	require.NoError(t, err, "an unknown course is a textual miss, not an error")
	assert.Equal(t, "No course found matching 'Basket Weaving'", inv.Output)
	assert.Empty(t, inv.Sources)
	assert.Empty(t, store.lastQuery, "no search should run for an unknown course")
}

func TestSearchTool_EmptyResultsNamesFilters(t *testing.T) {
	store := &fakeStore{titles: map[string]string{"RAG": "RAG Basics"}}
	tool := tools.NewSearchTool(store, 3, testutil.Logger(t))

	inv, err := tool.Execute(context.Background(), map[string]any{
		"query":         "quantum physics",
		"course_name":   "RAG",
		"lesson_number": float64(3), // JSON numbers decode as float64
	})
	require.NoError(t, err)
	assert.Equal(t, "No relevant content found in course 'RAG' in lesson 3.", inv.Output)
	require.NotNil(t, store.lastFilter.Lesson)
	assert.Equal(t, 3, *store.lastFilter.Lesson)
}

func TestSearchTool_EmptyResultsNoFilters(t *testing.T) {
	store := &fakeStore{}
	tool := tools.NewSearchTool(store, 3, testutil.Logger(t))

	inv, err := tool.Execute(context.Background(), map[string]any{"query": "nothing matches"})
	require.NoError(t, err)
	assert.Equal(t, "No relevant content found.", inv.Output)
}

func TestOutlineTool(t *testing.T) {
	store := &fakeStore{
		titles: map[string]string{"testing": "Introduction to Testing"},
		outline: &course.Outline{
			CourseTitle: "Introduction to Testing",
			CourseLink:  "https://example.com/testing",
			Instructor:  "Ada Lovelace",
			Lessons: []course.LessonInfo{
				{Number: 0, Title: "Overview"},
				{Number: 1, Title: "Unit Tests"},
			},
		},
	}
	tool := tools.NewOutlineTool(store, testutil.Logger(t))

	inv, err := tool.Execute(context.Background(), map[string]any{"course_name": "testing"})
	require.NoError(t, err)

	assert.Contains(t, inv.Output, "Course: Introduction to Testing")
	assert.Contains(t, inv.Output, "Course Link: https://example.com/testing")
	assert.Contains(t, inv.Output, "Lessons (2):")
	assert.Contains(t, inv.Output, "Lesson 0: Overview")
	assert.Contains(t, inv.Output, "Lesson 1: Unit Tests")

	require.Len(t, inv.Sources, 1)
	assert.Equal(t, "Introduction to Testing", inv.Sources[0].Course)
	assert.Equal(t, "https://example.com/testing", inv.Sources[0].Link)
	assert.Nil(t, inv.Sources[0].Lesson)
}

func TestOutlineTool_UnknownCourse(t *testing.T) {
	store := &fakeStore{titles: map[string]string{}}
	tool := tools.NewOutlineTool(store, testutil.Logger(t))

	inv, err := tool.Execute(context.Background(), map[string]any{"course_name": "Basket Weaving"})
	require.NoError(t, err)
	assert.Equal(t, "No course found matching 'Basket Weaving'", inv.Output)
	assert.Empty(t, inv.Sources)
}

func TestSearchAndOutlineDefinitions(t *testing.T) {
	search := tools.NewSearchTool(&fakeStore{}, 3, testutil.Logger(t))
	outline := tools.NewOutlineTool(&fakeStore{}, testutil.Logger(t))

	sd := search.Definition()
	assert.Equal(t, tools.SearchToolName, sd.Name)
	require.NotNil(t, sd.InputSchema)
	assert.Contains(t, sd.InputSchema.Required, "query")

	od := outline.Definition()
	assert.Equal(t, tools.OutlineToolName, od.Name)
	require.NotNil(t, od.InputSchema)
	assert.Contains(t, od.InputSchema.Required, "course_name")
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/coursepilot/coursepilot/internal/log"
	"github.com/coursepilot/coursepilot/internal/vectorstore"
)

// SearchToolName is the registered name of the content search tool.
const SearchToolName = "search_course_content"

// Searcher is the slice of the vector store the search tool needs.
// Defined here, on the consumer side, so tests can stub it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, f vectorstore.Filter) ([]vectorstore.SearchResult, error)
	ResolveCourseName(ctx context.Context, name string) (string, error)
}

// SearchTool searches course content semantically, with optional filtering by
// course name (fuzzily resolved) and lesson number.
type SearchTool struct {
	store  Searcher
	topK   int
	logger log.Logger
}

// NewSearchTool creates the content search tool. topK bounds the number of
// chunks per search; values below 1 fall back to 5.
func NewSearchTool(store Searcher, topK int, logger log.Logger) *SearchTool {
	if topK < 1 {
		topK = 5
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &SearchTool{store: store, topK: topK, logger: logger}
}

type searchInput struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name"`
	LessonNumber *int   `json:"lesson_number"`
}

// Definition describes the tool to the model.
func (t *SearchTool) Definition() Definition {
	return Definition{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        "integer",
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs the search. Misses are textual output, not errors: an unknown
// course name or an empty result set produces a message the model can relay
// or react to.
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (*Invocation, error) {
	in, err := decodeArgs[searchInput](args)
	if err != nil {
		return nil, err
	}

	var filter vectorstore.Filter
	if in.CourseName != "" {
		title, err := t.store.ResolveCourseName(ctx, in.CourseName)
		if err != nil {
			if errors.Is(err, vectorstore.ErrCourseNotFound) {
				return &Invocation{
					Output: fmt.Sprintf("No course found matching '%s'", in.CourseName),
				}, nil
			}
			return nil, err
		}
		filter.CourseTitle = title
	}
	filter.Lesson = in.LessonNumber

	results, err := t.store.Search(ctx, in.Query, t.topK, filter)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &Invocation{Output: emptySearchMessage(in)}, nil
	}

	return formatSearchResults(results), nil
}

// emptySearchMessage names the filters that produced no hits, echoing the
// caller's own course wording rather than the resolved title.
func emptySearchMessage(in searchInput) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if in.CourseName != "" {
		fmt.Fprintf(&b, " in course '%s'", in.CourseName)
	}
	if in.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *in.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// formatSearchResults renders each chunk under a course/lesson header and
// collects one source per chunk for citation.
func formatSearchResults(results []vectorstore.SearchResult) *Invocation {
	var blocks []string
	sources := make([]Source, 0, len(results))

	for _, r := range results {
		lesson := r.Lesson
		blocks = append(blocks, fmt.Sprintf("[%s - Lesson %d]\n%s", r.CourseTitle, r.Lesson, r.Content))
		sources = append(sources, Source{
			Course: r.CourseTitle,
			Lesson: &lesson,
			Link:   r.LessonLink,
		})
	}

	return &Invocation{
		Output:  strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

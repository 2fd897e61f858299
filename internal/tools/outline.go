package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/coursepilot/coursepilot/internal/course"
	"github.com/coursepilot/coursepilot/internal/log"
	"github.com/coursepilot/coursepilot/internal/vectorstore"
)

// OutlineToolName is the registered name of the course outline tool.
const OutlineToolName = "get_course_outline"

// OutlineSource is the slice of the vector store the outline tool needs.
type OutlineSource interface {
	ResolveCourseName(ctx context.Context, name string) (string, error)
	Outline(ctx context.Context, title string) (*course.Outline, error)
}

// OutlineTool returns a course's structure: title, link, instructor and the
// full numbered lesson list.
type OutlineTool struct {
	store  OutlineSource
	logger log.Logger
}

// NewOutlineTool creates the course outline tool.
func NewOutlineTool(store OutlineSource, logger log.Logger) *OutlineTool {
	if logger == nil {
		logger = log.NewNop()
	}
	return &OutlineTool{store: store, logger: logger}
}

type outlineInput struct {
	CourseName string `json:"course_name"`
}

// Definition describes the tool to the model.
func (t *OutlineTool) Definition() Definition {
	return Definition{
		Name:        OutlineToolName,
		Description: "Get the complete outline of a course including title, link, and all lessons",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			Required: []string{"course_name"},
		},
	}
}

// Execute resolves the course name and renders its outline. An unknown
// course is textual output, not an error.
func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (*Invocation, error) {
	in, err := decodeArgs[outlineInput](args)
	if err != nil {
		return nil, err
	}

	title, err := t.store.ResolveCourseName(ctx, in.CourseName)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCourseNotFound) {
			return &Invocation{
				Output: fmt.Sprintf("No course found matching '%s'", in.CourseName),
			}, nil
		}
		return nil, err
	}

	outline, err := t.store.Outline(ctx, title)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", outline.CourseTitle)
	if outline.CourseLink != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", outline.CourseLink)
	}
	if outline.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", outline.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(outline.Lessons))
	for _, l := range outline.Lessons {
		fmt.Fprintf(&b, "  Lesson %d: %s\n", l.Number, l.Title)
	}

	return &Invocation{
		Output: strings.TrimRight(b.String(), "\n"),
		Sources: []Source{{
			Course: outline.CourseTitle,
			Link:   outline.CourseLink,
		}},
	}, nil
}
